// Package domain defines the core business entities for prokb.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Fragment: A chunk of transcript text with its embedding and provenance
//   - Segment: A timed piece of raw transcript text
//   - Video: A catalog entry describing one source document
//   - SearchOutcome: The typed result of a knowledge base query
//   - IngestReport: Per-run and per-document ingestion accounting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
