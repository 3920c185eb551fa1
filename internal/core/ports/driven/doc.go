// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FragmentStore: Fragment persistence (SQLite or in-memory)
//   - VectorIndex: Similarity ranking over stored fragments
//   - ConfigStore: Application configuration
//
// # Ingestion Interfaces
//
// Only needed by the ingestion pipeline:
//
//   - Catalog: Approved source documents and their metadata
//   - TranscriptSource: Timed transcript segments per document
//   - Tokenizer: Token counting for chunk budgets
//   - RunStore: Ingestion run history
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, search
//     reports the knowledge base as unavailable and ingestion cannot run.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
