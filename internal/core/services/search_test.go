package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prokb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/prokb/internal/adapters/driven/vectorindex/bruteforce"
	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

func newSearchFixture(t *testing.T, fragments ...domain.Fragment) (*SearchService, *memory.FragmentStore, *mockEmbedder) {
	t.Helper()
	store := memory.NewFragmentStore()
	if len(fragments) > 0 {
		require.NoError(t, store.Upsert(context.Background(), fragments))
	}
	embedder := newMockEmbedder(2)
	svc := NewSearchService(store, bruteforce.New(store), embedder, domain.DefaultAppSettings().Search)
	return svc, store, embedder
}

func frag(id, channel string, vec ...float32) domain.Fragment {
	return domain.Fragment{
		ID:            id,
		DocumentID:    "doc-" + id,
		Text:          "text of " + id,
		Embedding:     vec,
		SourceKind:    domain.SourceKindYouTube,
		Channel:       channel,
		Title:         "Title " + id,
		URL:           domain.YouTubeURL("doc-"+id, 75),
		PublishedDate: "20240301",
		Language:      "en",
		TimeRange:     &domain.TimeRange{Start: 75, End: 90},
	}
}

func TestNewSearchService_ClampsSettings(t *testing.T) {
	svc := NewSearchService(nil, nil, nil, domain.SearchSettings{DefaultTopK: 20, MaxTopK: 8})
	assert.Equal(t, 8, svc.settings.DefaultTopK)

	svc = NewSearchService(nil, nil, nil, domain.SearchSettings{})
	assert.Equal(t, domain.DefaultTopK, svc.settings.DefaultTopK)
	assert.Equal(t, domain.DefaultMaxTopK, svc.settings.MaxTopK)
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	svc, _, embedder := newSearchFixture(t,
		frag("x", "A", 1, 0),
		frag("y", "A", 0, 1),
		frag("z", "A", 0.9, 0.1),
	)
	embedder.vectors["fast castle"] = []float32{1, 0}

	outcome, err := svc.Search(context.Background(), "  fast castle ", domain.SearchOptions{TopK: 2})
	require.NoError(t, err)

	assert.Equal(t, domain.SearchStatusOK, outcome.Status)
	assert.Equal(t, "fast castle", outcome.Query)
	assert.Empty(t, outcome.Advisory)
	require.Len(t, outcome.Results, 2)

	assert.Equal(t, "x", outcome.Results[0].FragmentID)
	assert.InDelta(t, 1.0, outcome.Results[0].Similarity, 1e-6)
	assert.Equal(t, "z", outcome.Results[1].FragmentID)
	assert.InDelta(t, 0.9939, outcome.Results[1].Similarity, 1e-3)

	r := outcome.Results[0]
	assert.Equal(t, "text of x", r.Text)
	assert.Equal(t, "A", r.Channel)
	assert.Equal(t, "Title x", r.Title)
	assert.Equal(t, "doc-x", r.DocumentID)
	assert.Equal(t, "https://www.youtube.com/watch?v=doc-x&t=75", r.URL)
	assert.Equal(t, "20240301", r.PublishedDate)
	assert.Equal(t, "en", r.Language)
	assert.Equal(t, &domain.TimeRange{Start: 75, End: 90}, r.TimeRange)
}

func TestSearch_EmptyStore(t *testing.T) {
	svc, _, embedder := newSearchFixture(t)
	embedder.err = errors.New("must not be called")

	outcome, err := svc.Search(context.Background(), "anything", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusEmpty, outcome.Status)
	assert.Equal(t, domain.AdvisoryEmptyKnowledgeBase, outcome.Advisory)
	assert.Empty(t, outcome.Results)

	count, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _, _ := newSearchFixture(t, frag("x", "A", 1, 0))

	outcome, err := svc.Search(context.Background(), "   ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusEmpty, outcome.Status)
	assert.Equal(t, domain.AdvisoryEmptyQuery, outcome.Advisory)
}

func TestSearch_FilterWithoutMatches(t *testing.T) {
	svc, _, _ := newSearchFixture(t, frag("x", "A", 1, 0))

	outcome, err := svc.Search(context.Background(), "tier list", domain.SearchOptions{Channel: "B"})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusEmpty, outcome.Status)
	assert.Equal(t, "No relevant pro content found for 'tier list'.", outcome.Advisory)
}

func TestSearch_FilterExcludesOtherChannels(t *testing.T) {
	svc, _, _ := newSearchFixture(t,
		frag("a1", "A", 1, 0),
		frag("b1", "B", 1, 0),
		frag("a2", "A", 0, 1),
	)

	outcome, err := svc.Search(context.Background(), "q", domain.SearchOptions{Channel: "A", TopK: 10})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 2)
	for _, r := range outcome.Results {
		assert.Equal(t, "A", r.Channel)
	}
}

func TestSearch_ZeroQueryVector(t *testing.T) {
	svc, _, embedder := newSearchFixture(t, frag("x", "A", 1, 0))
	embedder.vectors["zero"] = []float32{0, 0}

	outcome, err := svc.Search(context.Background(), "zero", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusEmpty, outcome.Status)
	assert.Empty(t, outcome.Results)
}

func TestSearch_EmbeddingFailureDegrades(t *testing.T) {
	svc, _, embedder := newSearchFixture(t, frag("x", "A", 1, 0))
	embedder.err = fmt.Errorf("%w: timeout", domain.ErrEmbeddingUnavailable)

	outcome, err := svc.Search(context.Background(), "q", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusServiceUnavailable, outcome.Status)
	assert.Equal(t, domain.AdvisoryUnavailable, outcome.Advisory)
	assert.Empty(t, outcome.Results)
}

func TestSearch_NoEmbedder(t *testing.T) {
	store := memory.NewFragmentStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.Fragment{frag("x", "A", 1, 0)}))
	svc := NewSearchService(store, bruteforce.New(store), nil, domain.SearchSettings{})

	outcome, err := svc.Search(context.Background(), "q", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusServiceUnavailable, outcome.Status)
	assert.ErrorIs(t, svc.CheckModel(context.Background()), domain.ErrNotConfigured)
}

func TestSearch_QueryDimensionMismatchDegrades(t *testing.T) {
	svc, _, embedder := newSearchFixture(t, frag("x", "A", 1, 0))
	embedder.vectors["q"] = []float32{1, 0, 0}

	outcome, err := svc.Search(context.Background(), "q", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusServiceUnavailable, outcome.Status)
}

func TestSearch_StorageErrorIsReturned(t *testing.T) {
	store := &failingStore{FragmentStore: memory.NewFragmentStore(), countErr: fmt.Errorf("%w: locked", domain.ErrStorage)}
	svc := NewSearchService(store, bruteforce.New(store), newMockEmbedder(2), domain.SearchSettings{})

	_, err := svc.Search(context.Background(), "q", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.False(t, svc.Ready(context.Background()))
}

func TestSearch_TopKDefaultAndCap(t *testing.T) {
	var fragments []domain.Fragment
	for i := 0; i < 15; i++ {
		fragments = append(fragments, frag(fmt.Sprintf("f%02d", i), "A", 1, float32(i)/10))
	}
	svc, _, _ := newSearchFixture(t, fragments...)
	ctx := context.Background()

	tests := []struct {
		name string
		topK int
		want int
	}{
		{"default", 0, domain.DefaultTopK},
		{"negative uses default", -3, domain.DefaultTopK},
		{"explicit", 3, 3},
		{"capped", 50, domain.DefaultMaxTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := svc.Search(ctx, "q", domain.SearchOptions{TopK: tt.topK})
			require.NoError(t, err)
			assert.Len(t, outcome.Results, tt.want)
		})
	}
}

func TestSearchService_Health(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		svc, _, _ := newSearchFixture(t)
		health, err := svc.Health(ctx)
		require.NoError(t, err)
		assert.Zero(t, health.Count)
		assert.False(t, health.Ready)
		assert.False(t, svc.Ready(ctx))
		assert.Nil(t, health.LastRun)
	})

	t.Run("populated store with run history", func(t *testing.T) {
		svc, store, _ := newSearchFixture(t, frag("x", "A", 1, 0))
		require.NoError(t, store.PinEmbeddingModel(ctx, domain.ModelInfo{Name: "mock-embed", Dimensions: 2}))
		runs := memory.NewRunStore()
		require.NoError(t, runs.Record(ctx, &domain.IngestReport{RunID: "r1", Stored: 1}))
		svc.SetRunStore(runs)

		health, err := svc.Health(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, health.Count)
		assert.True(t, health.Ready)
		assert.True(t, svc.Ready(ctx))
		assert.Equal(t, domain.ModelInfo{Name: "mock-embed", Dimensions: 2}, health.Model)
		require.NotNil(t, health.LastRun)
		assert.Equal(t, "r1", health.LastRun.RunID)
	})
}

func TestSearchService_CheckModel(t *testing.T) {
	ctx := context.Background()
	svc, store, embedder := newSearchFixture(t)

	assert.NoError(t, svc.CheckModel(ctx), "unpinned store accepts any model")

	require.NoError(t, store.PinEmbeddingModel(ctx, domain.ModelInfo{Name: "mock-embed", Dimensions: 2}))
	assert.NoError(t, svc.CheckModel(ctx))

	embedder.model = "other-model"
	assert.ErrorIs(t, svc.CheckModel(ctx), domain.ErrModelMismatch)
}

var _ driven.FragmentStore = (*failingStore)(nil)
