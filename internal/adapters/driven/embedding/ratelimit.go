// Package embedding provides decorators shared by the embedding adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

const (
	// DefaultRequestsPerSecond is the proactive throttle rate.
	DefaultRequestsPerSecond = 5.0

	// DefaultMaxRetries is how often a rate-limited call is retried.
	DefaultMaxRetries = 3

	// DefaultBackoff is the first wait after a rate limit response.
	DefaultBackoff = 500 * time.Millisecond

	// maxBackoff caps the exponential backoff.
	maxBackoff = 30 * time.Second
)

// RateLimited throttles calls to an embedding provider with a token bucket
// and retries with exponential backoff when the provider reports 429.
type RateLimited struct {
	driven.EmbeddingService

	bucket     *rate.Limiter
	maxRetries int
	backoff    time.Duration

	mu           sync.Mutex
	rateLimitErr int
}

// RateLimitOption configures a RateLimited service.
type RateLimitOption func(*RateLimited)

// WithMaxRetries sets the number of retries after a rate limit response.
func WithMaxRetries(n int) RateLimitOption {
	return func(r *RateLimited) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithBackoff sets the first backoff delay.
func WithBackoff(d time.Duration) RateLimitOption {
	return func(r *RateLimited) {
		if d > 0 {
			r.backoff = d
		}
	}
}

// NewRateLimited wraps svc with a limiter of rps requests per second.
// A non-positive rps uses DefaultRequestsPerSecond.
func NewRateLimited(svc driven.EmbeddingService, rps float64, opts ...RateLimitOption) *RateLimited {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	r := &RateLimited{
		EmbeddingService: svc,
		bucket:           rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries:       DefaultMaxRetries,
		backoff:          DefaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Embed waits for the limiter and embeds text.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.EmbeddingService.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch waits for the limiter and embeds texts in one provider call.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.do(ctx, func() error {
		var err error
		out, err = r.EmbeddingService.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// RateLimitErrors returns how many rate limit responses have been seen.
func (r *RateLimited) RateLimitErrors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rateLimitErr
}

func (r *RateLimited) do(ctx context.Context, call func() error) error {
	wait := r.backoff
	for attempt := 0; ; attempt++ {
		if err := r.bucket.Wait(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) {
			return err
		}

		r.recordRateLimitError()
		if attempt >= r.maxRetries {
			return fmt.Errorf("giving up after %d retries: %w", attempt, err)
		}

		logger.Debug("embedding provider rate limited, retrying in %v", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, maxBackoff)
	}
}

// recordRateLimitError halves the proactive rate so later calls slow down.
func (r *RateLimited) recordRateLimitError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rateLimitErr++
	r.bucket.SetLimit(r.bucket.Limit() / 2)
}
