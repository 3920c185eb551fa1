package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockCatalog implements driven.Catalog for testing.
type mockCatalog struct {
	mu      sync.Mutex
	videos  []domain.Video
	err     error
	marked  []string
	markErr error
}

func (m *mockCatalog) Approved(_ context.Context) ([]domain.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.videos, nil
}

func (m *mockCatalog) MarkIngested(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, ids...)
	return m.markErr
}

func (m *mockCatalog) LatestUploadDates(_ context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

func (m *mockCatalog) Path() string { return "mock://catalog" }

// mockTranscripts implements driven.TranscriptSource for testing.
// A video without an entry is unavailable.
type mockTranscripts struct {
	segments map[string][]domain.Segment

	// started is signalled and block awaited on every fetch when set.
	started chan string
	block   chan struct{}
}

func (m *mockTranscripts) Fetch(ctx context.Context, video domain.Video) ([]domain.Segment, error) {
	if m.started != nil {
		m.started <- video.ID
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	segs, ok := m.segments[video.ID]
	if !ok {
		return nil, domain.ErrTranscriptUnavailable
	}
	return segs, nil
}

// segmentChunker emits one chunk per non-blank segment.
type segmentChunker struct{}

func (segmentChunker) Chunk(_ context.Context, segments []domain.Segment) ([]domain.TranscriptChunk, error) {
	var chunks []domain.TranscriptChunk
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		chunks = append(chunks, domain.TranscriptChunk{
			Text:       text,
			Start:      s.Start,
			End:        s.Start + s.Duration,
			TokenCount: len(strings.Fields(text)),
		})
	}
	return chunks, nil
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	model      string
	vectors    map[string][]float32
	err        error
	failText   string
	wrongDims  bool
	batchSizes []int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, model: "mock-embed", vectors: map[string][]float32{}}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	size := m.dims
	if m.wrongDims {
		size++
	}
	v := make([]float32, size)
	v[0] = 1
	v[len(text)%size]++
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if m.failText != "" && strings.Contains(t, m.failText) {
			return nil, errors.New("upstream quota exceeded")
		}
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return m.model }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// failingStore wraps a fragment store and fails selected calls.
type failingStore struct {
	driven.FragmentStore
	countErr  error
	upsertErr error
}

func (f *failingStore) Count(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.FragmentStore.Count(ctx)
}

func (f *failingStore) Upsert(ctx context.Context, fragments []domain.Fragment) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.FragmentStore.Upsert(ctx, fragments)
}

func (f *failingStore) ReplaceDocument(ctx context.Context, documentID string, fragments []domain.Fragment) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.FragmentStore.ReplaceDocument(ctx, documentID, fragments)
}

// mockIngestion implements driving.IngestionService for scheduler tests.
type mockIngestion struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockIngestion) Ingest(_ context.Context, _ domain.IngestOptions) (*domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestReport{RunID: "run", Stored: 1}, nil
}

func (m *mockIngestion) Status(_ context.Context) (*driving.IngestStatus, error) {
	return &driving.IngestStatus{}, nil
}

func (m *mockIngestion) Reset(_ context.Context) error { return nil }

func (m *mockIngestion) DeleteDocument(_ context.Context, _ string) (int, error) { return 0, nil }

func (m *mockIngestion) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockWatcher implements driven.CatalogWatcher with a test-driven channel.
type mockWatcher struct {
	changes chan struct{}
	err     error
}

func (m *mockWatcher) Watch(_ context.Context, _ time.Duration) (<-chan struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.changes, nil
}
