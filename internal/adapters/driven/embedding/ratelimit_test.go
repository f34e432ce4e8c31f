package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// fakeEmbedder fails with ErrRateLimited for the first failures calls.
type fakeEmbedder struct {
	failures int32
	calls    atomic.Int32
	err      error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, fmt.Errorf("%w: provider", domain.ErrRateLimited)
	}
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 1 }
func (f *fakeEmbedder) ModelName() string            { return "fake" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

func TestRateLimited_PassesThrough(t *testing.T) {
	inner := &fakeEmbedder{}
	svc := NewRateLimited(inner, 1000)

	v, err := svc.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, v)
	assert.Equal(t, "fake", svc.ModelName())
	assert.Equal(t, 0, svc.RateLimitErrors())
}

func TestRateLimited_RetriesAfterRateLimit(t *testing.T) {
	inner := &fakeEmbedder{failures: 2}
	svc := NewRateLimited(inner, 1000, WithBackoff(time.Millisecond))

	out, err := svc.EmbedBatch(context.Background(), []string{"ab"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}}, out)
	assert.Equal(t, int32(3), inner.calls.Load())
	assert.Equal(t, 2, svc.RateLimitErrors())
}

func TestRateLimited_GivesUp(t *testing.T) {
	inner := &fakeEmbedder{failures: 100}
	svc := NewRateLimited(inner, 1000, WithBackoff(time.Millisecond), WithMaxRetries(1))

	_, err := svc.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestRateLimited_OtherErrorsNotRetried(t *testing.T) {
	boom := errors.New("boom")
	inner := &fakeEmbedder{err: boom}
	svc := NewRateLimited(inner, 1000)

	_, err := svc.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRateLimited_HonoursContext(t *testing.T) {
	inner := &fakeEmbedder{failures: 100}
	svc := NewRateLimited(inner, 1000, WithBackoff(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Embed(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRateLimited_DefaultRate(t *testing.T) {
	svc := NewRateLimited(&fakeEmbedder{}, 0)
	assert.InDelta(t, DefaultRequestsPerSecond, float64(svc.bucket.Limit()), 0.001)
}
