package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required service has not been configured.
	ErrNotConfigured = errors.New("not configured")

	// ErrStorage indicates the fragment store failed to read or write.
	// Ingestion skips the affected document; search treats it as fatal.
	ErrStorage = errors.New("storage error")

	// ErrEmbeddingUnavailable indicates the embedding service failed or is not configured.
	// Ingestion records the document as failed; search degrades to an advisory.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrTranscriptUnavailable indicates no transcript could be fetched for a document.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// ErrNoUsableChunks indicates a transcript produced no non-empty chunks.
	ErrNoUsableChunks = errors.New("no usable chunks")

	// ErrDimensionMismatch indicates an embedding length differs from the store's pinned dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelMismatch indicates the configured embedding model differs from the one
	// the store was populated with.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrCatalogNotFound indicates the document catalog file does not exist.
	ErrCatalogNotFound = errors.New("catalog not found")

	// ErrRateLimited indicates the upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrIngestInProgress indicates another ingestion run holds the store.
	ErrIngestInProgress = errors.New("ingestion already in progress")
)
