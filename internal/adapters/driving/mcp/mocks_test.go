package mcp

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	outcome *domain.SearchOutcome
	health  *domain.Health
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchOutcome, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.outcome == nil {
		return &domain.SearchOutcome{
			Status:   domain.SearchStatusEmpty,
			Query:    query,
			Advisory: domain.NoMatchAdvisory(query),
		}, nil
	}
	return m.outcome, nil
}

func (m *mockSearchService) Count(_ context.Context) (int, error) {
	if m.health != nil {
		return m.health.Count, m.err
	}
	return 0, m.err
}

func (m *mockSearchService) Ready(_ context.Context) bool {
	return m.health != nil && m.health.Ready
}

func (m *mockSearchService) Health(_ context.Context) (*domain.Health, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.health == nil {
		return &domain.Health{}, nil
	}
	return m.health, nil
}

// mockChannels is a mock ChannelIndex.
type mockChannels struct {
	latest map[string]string
	err    error
}

func (m *mockChannels) LatestUploadDates(_ context.Context) (map[string]string, error) {
	return m.latest, m.err
}
