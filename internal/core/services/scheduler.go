package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
	"github.com/custodia-labs/prokb/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// CatalogDebounce is how long catalog edits settle before a run starts.
const CatalogDebounce = 2 * time.Second

// Scheduler runs unattended ingestion on a cron schedule and, optionally,
// whenever the catalog file changes. Runs never overlap; a trigger that
// fires during a run is dropped.
type Scheduler struct {
	config  domain.SchedulerConfig
	ingest  driving.IngestionService
	watcher driven.CatalogWatcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// onRun is called after each triggered run; used by tests.
	onRun func(trigger string, report *domain.IngestReport, err error)
}

// NewScheduler creates a scheduler. The watcher may be nil.
func NewScheduler(
	config domain.SchedulerConfig,
	ingest driving.IngestionService,
	watcher driven.CatalogWatcher,
) *Scheduler {
	return &Scheduler{
		config:  config,
		ingest:  ingest,
		watcher: watcher,
	}
}

// Start begins scheduling. It blocks until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()
	defer s.reset()

	if !s.config.Enabled {
		logger.Info("Scheduler disabled")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := cron.New()
	if s.config.Spec != "" {
		if _, err := c.AddFunc(s.config.Spec, func() { s.trigger(ctx, "schedule") }); err != nil {
			return err
		}
		logger.Info("Scheduled ingestion: %s", s.config.Spec)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	var changes <-chan struct{}
	if s.config.WatchCatalog && s.watcher != nil {
		ch, err := s.watcher.Watch(ctx, CatalogDebounce)
		if err != nil {
			logger.Warn("Catalog watch unavailable: %v", err)
		} else {
			changes = ch
			logger.Info("Watching catalog for changes")
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			cancel()
			s.wg.Wait()
			return nil
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.trigger(ctx, "catalog change")
			}()
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for an active run.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()
	return nil
}

// RunNow triggers an ingestion run immediately and waits for it.
func (s *Scheduler) RunNow(ctx context.Context) (*domain.IngestReport, error) {
	return s.ingest.Ingest(ctx, domain.IngestOptions{})
}

func (s *Scheduler) trigger(ctx context.Context, reason string) {
	logger.Info("Ingestion triggered by %s", reason)
	report, err := s.ingest.Ingest(ctx, domain.IngestOptions{})
	switch {
	case errors.Is(err, domain.ErrIngestInProgress):
		logger.Debug("Skipping %s trigger: run in progress", reason)
	case err != nil:
		logger.Error("Scheduled ingestion failed: %v", err)
	default:
		logger.Info("Scheduled ingestion: %d stored, %d skipped, %d failed",
			report.Stored, report.Skipped, report.Failed)
	}
	if s.onRun != nil {
		s.onRun(reason, report, err)
	}
}

func (s *Scheduler) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
}
