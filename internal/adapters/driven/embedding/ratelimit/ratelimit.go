// Package ratelimit throttles embedding requests with a token bucket and
// backs off after provider rate-limit responses.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/logger"
)

// Defaults for the retry policy.
const (
	DefaultBackoff    = 20 * time.Second
	DefaultMaxRetries = 3
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// Backoff is the pause after a rate-limit response.
	Backoff time.Duration
	// MaxRetries bounds retries after rate-limit responses.
	MaxRetries int
}

// Limiter is a token bucket with an optional backoff window.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewLimiter creates a limiter. A burst below one is raised to one.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by Backoff.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff blocks further requests for d.
func (l *Limiter) Backoff(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until := time.Now().Add(d); until.After(l.retryAt) {
		l.retryAt = until
	}
}

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService throttles calls to the wrapped service and retries
// requests that fail with domain.ErrRateLimited.
type EmbeddingService struct {
	next       driven.EmbeddingService
	limiter    *Limiter
	backoff    time.Duration
	maxRetries int
}

// Wrap returns next throttled according to cfg. A non-positive rate
// disables throttling and returns next unchanged.
func Wrap(next driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if next == nil || cfg.RequestsPerSecond <= 0 {
		return next
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &EmbeddingService{
		next:       next,
		limiter:    NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		backoff:    cfg.Backoff,
		maxRetries: cfg.MaxRetries,
	}
}

// Embed generates an embedding within the rate limit.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := s.do(ctx, func() error {
		var err error
		vec, err = s.next.Embed(ctx, text)
		return err
	})
	return vec, err
}

// EmbedBatch generates embeddings within the rate limit.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := s.do(ctx, func() error {
		var err error
		vecs, err = s.next.EmbedBatch(ctx, texts)
		return err
	})
	return vecs, err
}

func (s *EmbeddingService) do(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		err := call()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) || attempt >= s.maxRetries {
			return err
		}
		logger.Warn("embedding provider rate limited, retrying in %s (attempt %d/%d)",
			s.backoff, attempt+1, s.maxRetries)
		s.limiter.Backoff(s.backoff)
	}
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service without consuming a token.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.next.Close()
}
