package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
	"github.com/custodia-labs/prokb/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// RunHistoryLimit is the number of ingestion runs kept in the run store.
const RunHistoryLimit = 50

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	// BatchSize is the number of chunk texts per embedding request.
	BatchSize int

	// Workers bounds how many documents are processed at once.
	Workers int

	// Tokenizer is the counter behind the chunker. Its name is pinned
	// with the embedding model so chunk boundaries cannot drift between
	// runs. Optional.
	Tokenizer driven.Tokenizer
}

// IngestionService turns approved catalog documents into stored fragments.
// Only one run may be active at a time.
type IngestionService struct {
	catalog     driven.Catalog
	transcripts driven.TranscriptSource
	chunker     driven.TranscriptChunker
	embedder    driven.EmbeddingService
	store       driven.FragmentStore
	runs        driven.RunStore
	config      IngestConfig

	runMu sync.Mutex

	// Status tracking
	mu     sync.RWMutex
	status *driving.IngestStatus
}

// NewIngestionService creates a new ingestion service.
// The embedder may be nil, in which case Ingest fails with
// domain.ErrEmbeddingUnavailable while Reset and DeleteDocument still work.
func NewIngestionService(
	catalog driven.Catalog,
	transcripts driven.TranscriptSource,
	chunker driven.TranscriptChunker,
	embedder driven.EmbeddingService,
	store driven.FragmentStore,
	config IngestConfig,
) *IngestionService {
	if config.BatchSize <= 0 {
		config.BatchSize = domain.DefaultBatchSize
	}
	if config.Workers <= 0 {
		config.Workers = domain.DefaultWorkers
	}
	return &IngestionService{
		catalog:     catalog,
		transcripts: transcripts,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		config:      config,
	}
}

// SetRunStore enables run history recording.
func (s *IngestionService) SetRunStore(runs driven.RunStore) {
	s.runs = runs
}

// Ingest processes every approved catalog entry, or the subset named in
// opts. Per-document failures are recorded in the report; the returned
// error is reserved for run-level faults and cancellation.
func (s *IngestionService) Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}
	if !s.runMu.TryLock() {
		return nil, domain.ErrIngestInProgress
	}
	defer s.runMu.Unlock()

	model := domain.ModelInfo{Name: s.embedder.ModelName(), Dimensions: s.embedder.Dimensions()}
	if s.config.Tokenizer != nil {
		model.Tokenizer = s.config.Tokenizer.Name()
	}
	if err := s.store.PinEmbeddingModel(ctx, model); err != nil {
		return nil, fmt.Errorf("pin embedding model: %w", err)
	}

	videos, err := s.catalog.Approved(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	report := &domain.IngestReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	videos, missing := selectDocuments(videos, opts.DocumentIDs)
	report.Candidates = len(videos) + len(missing)

	logger.Section("Ingestion")
	logger.Info("Run %s: %d documents (force=%t)", report.RunID, report.Candidates, opts.Force)

	s.setStatus(&driving.IngestStatus{
		RunID:          report.RunID,
		Running:        true,
		DocumentsTotal: report.Candidates,
	})

	for _, id := range missing {
		logger.Warn("Document %s is not an approved catalog entry", id)
		res := domain.DocumentResult{
			DocumentID: id,
			State:      domain.StateFetchFailed,
			Error:      "not an approved catalog entry",
		}
		report.Add(res)
		s.recordProgress(res)
	}

	results := make([]domain.DocumentResult, len(videos))
	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i := range videos {
		results[i] = domain.DocumentResult{
			DocumentID: videos[i].ID,
			Title:      videos[i].Title,
			State:      domain.StatePending,
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = s.processDocument(ctx, report.RunID, videos[i], opts.Force)
			s.recordProgress(results[i])
			return nil
		})
	}
	_ = g.Wait()

	var stored []string
	for _, res := range results {
		report.Add(res)
		if res.State == domain.StateStored {
			stored = append(stored, res.DocumentID)
		}
	}
	report.EndedAt = time.Now()

	// The catalog and run history are bookkeeping; a cancelled run still
	// records what it finished.
	bookkeeping := context.WithoutCancel(ctx)
	if len(stored) > 0 {
		if err := s.catalog.MarkIngested(bookkeeping, stored); err != nil {
			logger.Warn("Marking documents ingested: %v", err)
		}
	}
	s.recordRun(bookkeeping, report)
	s.finishStatus()

	logger.Info("Run %s complete: %d stored, %d skipped, %d failed, %d fragments in %s",
		report.RunID, report.Stored, report.Skipped, report.Failed, report.Fragments,
		report.Duration().Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingestion interrupted: %w", err)
	}
	return report, nil
}

// processDocument runs one document through fetch, chunk, embed and store.
//
//nolint:gocyclo // Pipeline with one exit per document state
func (s *IngestionService) processDocument(
	ctx context.Context, runID string, video domain.Video, force bool,
) domain.DocumentResult {
	log := logger.With("run_id", runID, "document_id", video.ID)
	res := domain.DocumentResult{DocumentID: video.ID, Title: video.Title, State: domain.StatePending}
	fail := func(state domain.DocumentState, err error) domain.DocumentResult {
		res.State = state
		res.Error = err.Error()
		log.Warnw("document failed", "state", string(state), "error", err)
		return res
	}

	exists, err := s.store.Exists(ctx, video.ID)
	if err != nil {
		return fail(domain.StateStoreFailed, err)
	}
	if exists && !force {
		log.Debugw("already ingested, skipping")
		res.State = domain.StateSkipped
		return res
	}

	segments, err := s.transcripts.Fetch(ctx, video)
	if err != nil {
		return fail(domain.StateFetchFailed, err)
	}
	res.State = domain.StateFetched

	chunks, err := s.chunker.Chunk(ctx, segments)
	if err != nil {
		return fail(domain.StateNoUsableChunks, err)
	}
	if len(chunks) == 0 {
		return fail(domain.StateNoUsableChunks, domain.ErrNoUsableChunks)
	}
	res.State = domain.StateChunked
	log.Debugw("chunked", "segments", len(segments), "chunks", len(chunks))

	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return fail(domain.StateEmbedFailed, err)
	}
	res.State = domain.StateEmbedded

	fragments := buildFragments(video, chunks, embeddings)

	// A forced re-run may produce fewer chunks, so the old set is swapped
	// out as a whole. A failed swap keeps the previous fragments.
	write := s.store.Upsert
	if exists {
		write = func(ctx context.Context, fragments []domain.Fragment) error {
			return s.store.ReplaceDocument(ctx, video.ID, fragments)
		}
	}
	if err := write(ctx, fragments); err != nil {
		return fail(domain.StateStoreFailed, err)
	}

	res.State = domain.StateStored
	res.Fragments = len(fragments)
	log.Infow("stored", "fragments", len(fragments))
	return res
}

// embedChunks embeds chunk texts in fixed-size batches and checks every
// vector against the embedder's dimensionality.
func (s *IngestionService) embedChunks(
	ctx context.Context, chunks []domain.TranscriptChunk,
) ([][]float32, error) {
	dims := s.embedder.Dimensions()
	embeddings := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += s.config.BatchSize {
		end := min(start+s.config.BatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		vecs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
				domain.ErrEmbeddingUnavailable, len(vecs), len(texts))
		}
		for i, v := range vecs {
			if len(v) != dims {
				return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
					domain.ErrDimensionMismatch, start+i, len(v), dims)
			}
		}
		embeddings = append(embeddings, vecs...)
	}
	return embeddings, nil
}

// buildFragments attaches document metadata to each embedded chunk.
func buildFragments(video domain.Video, chunks []domain.TranscriptChunk, embeddings [][]float32) []domain.Fragment {
	fragments := make([]domain.Fragment, len(chunks))
	for i, c := range chunks {
		start, end := int(c.Start), int(c.End)
		fragments[i] = domain.Fragment{
			ID:            domain.FragmentID(video.ID, i),
			Text:          c.Text,
			Embedding:     embeddings[i],
			SourceKind:    domain.SourceKindYouTube,
			Channel:       video.Channel,
			Title:         video.Title,
			DocumentID:    video.ID,
			URL:           video.URL(start),
			PublishedDate: video.UploadDate,
			Language:      video.Language(),
			TimeRange:     &domain.TimeRange{Start: start, End: end},
		}
	}
	return fragments
}

// selectDocuments keeps catalog order and returns requested IDs that are
// not approved entries. An empty selection keeps every video.
func selectDocuments(videos []domain.Video, ids []string) (selected []domain.Video, missing []string) {
	if len(ids) == 0 {
		return videos, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for _, v := range videos {
		if wanted[v.ID] {
			selected = append(selected, v)
			delete(wanted, v.ID)
		}
	}
	for _, id := range ids {
		if wanted[id] {
			missing = append(missing, id)
			delete(wanted, id)
		}
	}
	return selected, missing
}

// Status returns progress of the active run, or a summary of the last
// recorded run when idle.
func (s *IngestionService) Status(ctx context.Context) (*driving.IngestStatus, error) {
	s.mu.RLock()
	if s.status != nil {
		status := *s.status
		s.mu.RUnlock()
		return &status, nil
	}
	s.mu.RUnlock()

	if s.runs == nil {
		return &driving.IngestStatus{}, nil
	}
	last, err := s.runs.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return &driving.IngestStatus{}, nil
	}
	return &driving.IngestStatus{
		RunID:              last.RunID,
		DocumentsTotal:     last.Candidates,
		DocumentsProcessed: last.Stored + last.Skipped + last.Failed,
		ErrorCount:         last.Failed,
	}, nil
}

// Reset wipes every stored fragment and the pinned model. Confirmation is
// the caller's responsibility.
func (s *IngestionService) Reset(ctx context.Context) error {
	if !s.runMu.TryLock() {
		return domain.ErrIngestInProgress
	}
	defer s.runMu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	logger.Info("Knowledge base reset")
	return nil
}

// DeleteDocument removes one document's fragments.
func (s *IngestionService) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if documentID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	n, err := s.store.DeleteDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no fragments for document %s", domain.ErrNotFound, documentID)
	}
	logger.Info("Deleted %d fragments of %s", n, documentID)
	return n, nil
}

func (s *IngestionService) recordRun(ctx context.Context, report *domain.IngestReport) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(ctx, report); err != nil {
		logger.Warn("Recording run %s: %v", report.RunID, err)
		return
	}
	if err := s.runs.Prune(ctx, RunHistoryLimit); err != nil {
		logger.Warn("Pruning run history: %v", err)
	}
}

func (s *IngestionService) setStatus(status *driving.IngestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *IngestionService) recordProgress(res domain.DocumentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return
	}
	if res.State.IsTerminal() {
		s.status.DocumentsProcessed++
	}
	if res.State.IsFailure() {
		s.status.ErrorCount++
	}
}

// finishStatus clears the live status so Status falls back to run history.
// Without a run store the final counters are kept.
func (s *IngestionService) finishStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return
	}
	if s.runs != nil {
		s.status = nil
		return
	}
	s.status.Running = false
}
