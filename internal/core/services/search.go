package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
	"github.com/custodia-labs/prokb/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers knowledge base queries: it embeds the query,
// ranks stored fragments and classifies the outcome.
type SearchService struct {
	store    driven.FragmentStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	runs     driven.RunStore
	settings domain.SearchSettings
}

// NewSearchService creates a new search service.
// The embedder may be nil; searches then report the service as unavailable.
func NewSearchService(
	store driven.FragmentStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	settings domain.SearchSettings,
) *SearchService {
	defaults := domain.DefaultAppSettings().Search
	if settings.DefaultTopK <= 0 {
		settings.DefaultTopK = defaults.DefaultTopK
	}
	if settings.MaxTopK <= 0 {
		settings.MaxTopK = defaults.MaxTopK
	}
	if settings.DefaultTopK > settings.MaxTopK {
		settings.DefaultTopK = settings.MaxTopK
	}
	return &SearchService{
		store:    store,
		index:    index,
		embedder: embedder,
		settings: settings,
	}
}

// SetRunStore enables the last-run summary in Health.
func (s *SearchService) SetRunStore(runs driven.RunStore) {
	s.runs = runs
}

// Search embeds the query and returns the top ranked fragments.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchOutcome, error) {
	logger.Section("Search Execution")
	query = strings.TrimSpace(query)
	logger.Debug("Query: %q", query)

	outcome := &domain.SearchOutcome{Query: query, Results: []domain.SearchResult{}}
	if query == "" {
		outcome.Status = domain.SearchStatusEmpty
		outcome.Advisory = domain.AdvisoryEmptyQuery
		return outcome, nil
	}

	topK := s.topK(opts.TopK)
	logger.Debug("Top-k: %d, channel: %q, language: %q", topK, opts.Channel, opts.Language)

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if count == 0 {
		outcome.Status = domain.SearchStatusEmpty
		outcome.Advisory = domain.AdvisoryEmptyKnowledgeBase
		return outcome, nil
	}

	if s.embedder == nil {
		logger.Warn("Search unavailable: embedding service not configured")
		return unavailable(outcome), nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("Query embedding failed: %v", err)
		return unavailable(outcome), nil
	}

	hits, err := s.index.Search(ctx, queryVec, topK, opts.Filter())
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			logger.Warn("Query embedding does not match the store: %v", err)
			return unavailable(outcome), nil
		}
		return nil, fmt.Errorf("search: %w", err)
	}

	if len(hits) == 0 {
		outcome.Status = domain.SearchStatusEmpty
		outcome.Advisory = domain.NoMatchAdvisory(query)
		return outcome, nil
	}

	outcome.Status = domain.SearchStatusOK
	for _, hit := range hits {
		outcome.Results = append(outcome.Results, domain.NewSearchResult(hit))
	}
	logger.Info("Search returned %d results", len(outcome.Results))
	return outcome, nil
}

// Count returns the number of stored fragments.
func (s *SearchService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Ready reports whether the store is reachable and holds fragments.
func (s *SearchService) Ready(ctx context.Context) bool {
	count, err := s.store.Count(ctx)
	return err == nil && count > 0
}

// Health returns a readiness summary including the pinned model and the
// most recent ingestion run.
func (s *SearchService) Health(ctx context.Context) (*domain.Health, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	model, err := s.store.EmbeddingModel(ctx)
	if err != nil {
		return nil, err
	}

	health := &domain.Health{
		Count: count,
		Ready: count > 0,
		Model: model,
	}

	if s.runs != nil {
		last, err := s.runs.Latest(ctx)
		if err != nil {
			logger.Warn("Reading last ingestion run: %v", err)
		} else {
			health.LastRun = last
		}
	}
	return health, nil
}

// CheckModel verifies the configured embedder matches the model the store
// was populated with. An unpinned store always passes.
func (s *SearchService) CheckModel(ctx context.Context) error {
	if s.embedder == nil {
		return fmt.Errorf("%w: no embedding service", domain.ErrNotConfigured)
	}
	pinned, err := s.store.EmbeddingModel(ctx)
	if err != nil {
		return err
	}
	if pinned.IsZero() {
		return nil
	}
	if pinned.Name != s.embedder.ModelName() || pinned.Dimensions != s.embedder.Dimensions() {
		return fmt.Errorf("%w: store uses %s (%d dims), configured %s (%d dims)",
			domain.ErrModelMismatch, pinned.Name, pinned.Dimensions,
			s.embedder.ModelName(), s.embedder.Dimensions())
	}
	return nil
}

// topK applies the default and the cap.
func (s *SearchService) topK(requested int) int {
	if requested <= 0 {
		return s.settings.DefaultTopK
	}
	if requested > s.settings.MaxTopK {
		return s.settings.MaxTopK
	}
	return requested
}

func unavailable(outcome *domain.SearchOutcome) *domain.SearchOutcome {
	outcome.Status = domain.SearchStatusServiceUnavailable
	outcome.Advisory = domain.AdvisoryUnavailable
	return outcome
}
