// Package cached provides an embedding service decorator that memoises
// single-text embeddings, so repeated chat messages skip the provider.
package cached

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default cache timings.
const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// EmbeddingService caches Embed results keyed by model and text hash.
// EmbedBatch is used for ingestion and passes through uncached.
type EmbeddingService struct {
	driven.EmbeddingService

	cache *cache.Cache
}

// New wraps svc with a cache whose entries live for ttl.
// A non-positive ttl uses DefaultTTL.
func New(svc driven.EmbeddingService, ttl time.Duration) *EmbeddingService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmbeddingService{
		EmbeddingService: svc,
		cache:            cache.New(ttl, DefaultCleanupInterval),
	}
}

// Embed returns the cached vector for text or asks the provider.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if x, found := s.cache.Get(key); found {
		return cloneVector(x.([]float32)), nil
	}

	vec, err := s.EmbeddingService.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, cloneVector(vec), cache.DefaultExpiration)
	return vec, nil
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.cache.ItemCount()
}

// Flush drops every cached vector.
func (s *EmbeddingService) Flush() {
	s.cache.Flush()
}

func (s *EmbeddingService) key(text string) string {
	return s.ModelName() + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

func cloneVector(v []float32) []float32 {
	return append([]float32(nil), v...)
}
