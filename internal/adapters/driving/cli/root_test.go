package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
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
	if m.outcome != nil {
		return m.outcome, nil
	}
	return &domain.SearchOutcome{
		Status: domain.SearchStatusOK,
		Query:  query,
		Results: []domain.SearchResult{{
			FragmentID: "vid1_chunk_0",
			DocumentID: "vid1",
			Text:       "Wall your wood line early.",
			Similarity: 0.82,
			Channel:    "Beasty",
			Title:      "Walling Guide",
			URL:        "https://www.youtube.com/watch?v=vid1&t=30",
			TimeRange:  &domain.TimeRange{Start: 30, End: 45},
		}},
	}, nil
}

func (m *mockSearchService) Count(_ context.Context) (int, error) {
	return 1, m.err
}

func (m *mockSearchService) Ready(_ context.Context) bool {
	return m.err == nil
}

func (m *mockSearchService) Health(_ context.Context) (*domain.Health, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.health != nil {
		return m.health, nil
	}
	return &domain.Health{Count: 1, Ready: true}, nil
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	mu         sync.Mutex
	report     *domain.IngestReport
	err        error
	status     *driving.IngestStatus
	resetCalls int
	deleted    map[string]int
	lastOpts   domain.IngestOptions
}

func (m *mockIngestionService) Ingest(_ context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpts = opts
	if m.report != nil || m.err != nil {
		return m.report, m.err
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.IngestReport{
		RunID:     "run-1",
		StartedAt: start,
		EndedAt:   start.Add(2 * time.Second),
		Stored:    2,
		Skipped:   1,
		Failed:    1,
		Fragments: 9,
		Documents: []domain.DocumentResult{
			{DocumentID: "a", State: domain.StateStored, Fragments: 5},
			{DocumentID: "b", State: domain.StateStored, Fragments: 4},
			{DocumentID: "c", State: domain.StateSkipped},
			{DocumentID: "d", State: domain.StateFetchFailed, Error: "transcript unavailable"},
		},
	}, nil
}

func (m *mockIngestionService) Status(_ context.Context) (*driving.IngestStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != nil {
		return m.status, nil
	}
	return &driving.IngestStatus{}, nil
}

func (m *mockIngestionService) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls++
	return m.err
}

func (m *mockIngestionService) DeleteDocument(_ context.Context, documentID string) (int, error) {
	if n, ok := m.deleted[documentID]; ok {
		return n, nil
	}
	return 0, domain.ErrNotFound
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    *domain.AppSettings
	set         map[string]string
	setErr      error
	validateErr error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.settings != nil {
		return m.settings, nil
	}
	s := domain.DefaultAppSettings()
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.model", "search.default_top_k"}
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

// mockScheduler is a mock implementation of driving.Scheduler.
type mockScheduler struct {
	startErr error
	started  bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	if m.startErr != nil {
		return m.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error { return nil }

// mockChannels is a mock mcp.ChannelIndex.
type mockChannels struct {
	latest map[string]string
	err    error
}

func (m *mockChannels) LatestUploadDates(_ context.Context) (map[string]string, error) {
	return m.latest, m.err
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search    *mockSearchService
	ingest    *mockIngestionService
	settings  *mockSettingsService
	scheduler *mockScheduler
	channels  *mockChannels
}

// setupTestServices installs mock services and returns a cleanup function
// that restores package state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		search:    &mockSearchService{},
		ingest:    &mockIngestionService{deleted: map[string]int{"vid1": 3}},
		settings:  &mockSettingsService{},
		scheduler: &mockScheduler{},
		channels:  &mockChannels{latest: map[string]string{"Hera": "20240210", "Beasty": "20240301"}},
	}
	useServices(&Services{
		Search:       ts.search,
		Ingest:       ts.ingest,
		Settings:     ts.settings,
		Scheduler:    ts.scheduler,
		Channels:     ts.channels,
		SnippetChars: domain.DefaultSnippetChars,
	})

	return ts, func() {
		useServices(&Services{})
		resetFlags()
	}
}

// resetFlags restores flag variables between command executions.
func resetFlags() {
	searchLimit, searchChannel, searchLanguage, searchJSON = 0, "", "", false
	ingestForce, ingestReset, ingestYes, ingestDocuments, resetYes = false, false, false, nil, false
	watchNow = false
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "prokb", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config-dir", "data-dir"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestSetup_UsesFactory(t *testing.T) {
	defer resetFlags()
	var got Options
	closed := false
	factory = func(opts Options) (*Services, error) {
		got = opts
		return &Services{
			Search: &mockSearchService{},
			Close:  func() error { closed = true; return nil },
		}, nil
	}
	defer func() {
		factory = nil
		useServices(&Services{})
		dataDir, configDir = "", ""
	}()

	out, err := execute(t, "--data-dir", "/tmp/kb", "--config-dir", "/tmp/kbconf", "search", "walls")
	require.NoError(t, err)
	assert.Contains(t, out, "Walling Guide")
	assert.Equal(t, Options{ConfigDir: "/tmp/kbconf", DataDir: "/tmp/kb"}, got)

	closeServices()
	assert.True(t, closed)
}

func TestSetup_FactoryError(t *testing.T) {
	factory = func(Options) (*Services, error) {
		return nil, errors.New("open store: locked")
	}
	defer func() { factory = nil }()

	_, err := execute(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}
