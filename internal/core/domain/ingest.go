package domain

import "time"

// DocumentState tracks one document through an ingestion run.
type DocumentState string

// Document states. The -failed states and StateNoUsableChunks are terminal
// for the run and counted as errors.
const (
	StatePending        DocumentState = "pending"
	StateSkipped        DocumentState = "skipped"
	StateFetched        DocumentState = "fetched"
	StateFetchFailed    DocumentState = "fetch-failed"
	StateChunked        DocumentState = "chunked"
	StateNoUsableChunks DocumentState = "no-usable-chunks"
	StateEmbedded       DocumentState = "embedded"
	StateEmbedFailed    DocumentState = "embed-failed"
	StateStored         DocumentState = "stored"
	StateStoreFailed    DocumentState = "store-failed"
)

// IsFailure returns true for states counted as per-document errors.
func (s DocumentState) IsFailure() bool {
	switch s {
	case StateFetchFailed, StateNoUsableChunks, StateEmbedFailed, StateStoreFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the document needs no further work this run.
func (s DocumentState) IsTerminal() bool {
	return s == StateStored || s == StateSkipped || s.IsFailure()
}

// DocumentResult is the outcome for a single document.
type DocumentResult struct {
	// DocumentID identifies the document.
	DocumentID string

	// Title is carried for reporting.
	Title string

	// State is the final state reached.
	State DocumentState

	// Fragments is the number of fragments written.
	Fragments int

	// Error describes the failure, if any.
	Error string
}

// IngestOptions controls an ingestion run.
type IngestOptions struct {
	// Force re-ingests documents that already have fragments.
	Force bool

	// DocumentIDs restricts the run to these documents. Empty means every
	// approved catalog entry.
	DocumentIDs []string
}

// IngestReport aggregates the outcome of an ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// StartedAt is when the run started.
	StartedAt time.Time

	// EndedAt is when the run finished.
	EndedAt time.Time

	// Candidates is the number of catalog entries considered.
	Candidates int

	// Stored counts documents whose fragments were written.
	Stored int

	// Skipped counts documents already present in the store.
	Skipped int

	// Failed counts documents that ended in a failure state.
	Failed int

	// Fragments counts fragments written across all documents.
	Fragments int

	// Documents holds per-document results in catalog order.
	// Not persisted by the run store.
	Documents []DocumentResult
}

// Add folds a document result into the totals.
func (r *IngestReport) Add(res DocumentResult) {
	r.Documents = append(r.Documents, res)
	switch {
	case res.State == StateStored:
		r.Stored++
		r.Fragments += res.Fragments
	case res.State == StateSkipped:
		r.Skipped++
	case res.State.IsFailure():
		r.Failed++
	}
}

// Duration returns how long the run took.
func (r *IngestReport) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Success returns true if no document failed.
func (r *IngestReport) Success() bool {
	return r.Failed == 0
}

// Health summarises knowledge base readiness.
type Health struct {
	// Count is the total number of stored fragments.
	Count int

	// Ready is true when the store is open and holds fragments.
	Ready bool

	// Model is the embedding model the store is pinned to.
	Model ModelInfo

	// LastRun is the most recent ingestion run, nil if none.
	LastRun *IngestReport
}
