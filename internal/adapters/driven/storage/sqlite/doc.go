// Package sqlite provides SQLite-backed implementations of the driven
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database file backs two stores:
//
//   - FragmentStore: fragments, their embeddings and the pinned model
//   - RunStore: ingestion run history
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Applied versions are recorded in schema_migrations.
//
// Embeddings are stored as little-endian float32 BLOBs.
//
// # Data Location
//
// By default, the database is stored at ~/.prokb/data/knowledge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite's own locking
// in WAL mode, and batch writes run inside a transaction.
package sqlite
