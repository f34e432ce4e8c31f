package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SimilaritySearch = (*SearchService)(nil)

// DefaultSearchLimit is used when a caller passes a non-positive limit.
const DefaultSearchLimit = 8

// ctxCheckInterval is how many chunks are scored between cancellation checks.
const ctxCheckInterval = 1024

// SearchService ranks chunks by cosine similarity with a brute-force scan.
type SearchService struct {
	docStore         driven.DocumentStore
	chunkStore       driven.ChunkStore
	embeddingService driven.EmbeddingService
	metrics          driven.MetricsRecorder
}

// NewSearchService creates a new search service.
// The embeddingService parameter is optional (can be nil); without it only
// vector queries are possible.
func NewSearchService(
	docStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	embeddingService driven.EmbeddingService,
) *SearchService {
	return &SearchService{
		docStore:         docStore,
		chunkStore:       chunkStore,
		embeddingService: embeddingService,
		metrics:          noopMetrics{},
	}
}

// SetMetrics sets the recorder for search measurements.
func (s *SearchService) SetMetrics(m driven.MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// scanResult carries the scan outcome back from the worker goroutine.
type scanResult struct {
	hits []domain.ScoredChunk
	err  error
}

// Search implements driving.SimilaritySearch. The scan runs on a worker
// goroutine; the caller waits for it or for ctx, whichever comes first.
func (s *SearchService) Search(ctx context.Context, query []float32, limit int) ([]domain.ScoredChunk, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	start := time.Now()
	done := make(chan scanResult, 1)
	go func() {
		hits, err := s.scan(ctx, query, limit)
		done <- scanResult{hits: hits, err: err}
	}()

	var res scanResult
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-done:
	}

	if errors.Is(res.err, context.DeadlineExceeded) {
		res.err = fmt.Errorf("%w: %w", domain.ErrSearchTimeout, res.err)
	}
	s.metrics.RecordSearch(searchStatus(res.err), time.Since(start))
	if res.err != nil {
		return nil, res.err
	}

	logger.Debug("search: %d hits (limit %d) in %v", len(res.hits), limit, time.Since(start))
	return res.hits, nil
}

// SearchText implements driving.SimilaritySearch.
func (s *SearchService) SearchText(ctx context.Context, text string, limit int) ([]domain.ScoredChunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []domain.ScoredChunk{}, nil
	}
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	query, err := s.embeddingService.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.Search(ctx, query, limit)
}

func (s *SearchService) scan(ctx context.Context, query []float32, limit int) ([]domain.ScoredChunk, error) {
	chunks, err := s.chunkStore.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	searchable, err := s.searchableDocuments(ctx)
	if err != nil {
		return nil, err
	}

	queryNorm := norm(query)
	hits := make([]domain.ScoredChunk, 0, min(len(chunks), 4*limit))
	for i := range chunks {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		c := &chunks[i]
		if !searchable[c.DocumentID] {
			continue
		}
		if len(c.Embedding) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, chunk %s has %d",
				domain.ErrDimensionMismatch, len(query), c.ID, len(c.Embedding))
		}
		hits = append(hits, domain.ScoredChunk{Chunk: *c, Score: cosine(query, queryNorm, c.Embedding)})
	}

	sortHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// searchableDocuments returns the IDs of completed documents.
func (s *SearchService) searchableDocuments(ctx context.Context) (map[string]bool, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make(map[string]bool, len(docs))
	for _, d := range docs {
		if d.Searchable() {
			out[d.ID] = true
		}
	}
	return out, nil
}

// sortHits orders by score descending, then position ascending, then
// document ID, so equal scores rank deterministically.
func sortHits(hits []domain.ScoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.Position != b.Chunk.Position {
			return a.Chunk.Position < b.Chunk.Position
		}
		return a.Chunk.DocumentID < b.Chunk.DocumentID
	})
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of q and v. A zero vector scores 0.
func cosine(q []float32, qNorm float64, v []float32) float64 {
	vNorm := norm(v)
	if qNorm == 0 || vNorm == 0 {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	return dot / (qNorm * vNorm)
}

func searchStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmptyIndex):
		return "empty"
	case errors.Is(err, domain.ErrSearchTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrDimensionMismatch):
		return "dimension_mismatch"
	default:
		return "error"
	}
}
