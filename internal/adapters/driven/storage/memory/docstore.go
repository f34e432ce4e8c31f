package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure DocumentStore implements both store interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.ChunkStore    = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of driven.DocumentStore
// and driven.ChunkStore.
//
// A document's chunk set is never mutated in place: Put builds the
// replacement outside the lock and swaps the slice under it, so readers
// always hold either the old or the new set.
type DocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	chunks     map[string][]domain.Chunk
	chunkCount int
	dims       int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents ordered by creation time.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		result = append(result, s.documents[id])
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	s.dropChunksLocked(id)
	delete(s.documents, id)
	return nil
}

// Put replaces all chunks of a document.
func (s *DocumentStore) Put(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	dims, err := domain.ValidateChunks(documentID, chunks)
	if err != nil {
		return err
	}
	replacement := cloneChunks(chunks)
	sort.SliceStable(replacement, func(i, j int) bool {
		return replacement[i].Position < replacement[j].Position
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	doc, ok := s.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}

	others := s.chunkCount - len(s.chunks[documentID])
	if dims > 0 && others > 0 && dims != s.dims {
		return fmt.Errorf("%w: document %s has %d dimensions, store has %d",
			domain.ErrDimensionMismatch, documentID, dims, s.dims)
	}

	if len(replacement) == 0 {
		delete(s.chunks, documentID)
	} else {
		s.chunks[documentID] = replacement
	}
	s.chunkCount = others + len(replacement)
	switch {
	case s.chunkCount == 0:
		s.dims = 0
	case dims > 0:
		s.dims = dims
	}

	doc.TotalChunks = len(replacement)
	s.documents[documentID] = doc
	return nil
}

// AllChunks returns every stored chunk, grouped by document.
func (s *DocumentStore) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]domain.Chunk, 0, s.chunkCount)
	for _, id := range ids {
		result = append(result, s.chunks[id]...)
	}
	return result, nil
}

// ChunksForDocument returns the chunks of a document ordered by position.
func (s *DocumentStore) ChunksForDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.documents[documentID]; !ok {
		return nil, domain.ErrNotFound
	}
	chunks := s.chunks[documentID]
	result := make([]domain.Chunk, len(chunks))
	copy(result, chunks)
	return result, nil
}

// DeleteChunks removes all chunks of a document.
func (s *DocumentStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}
	s.dropChunksLocked(documentID)
	doc.TotalChunks = 0
	s.documents[documentID] = doc
	return nil
}

// Dimensions returns the embedding size of stored chunks, or 0 when empty.
func (s *DocumentStore) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

func (s *DocumentStore) dropChunksLocked(documentID string) {
	s.chunkCount -= len(s.chunks[documentID])
	delete(s.chunks, documentID)
	if s.chunkCount == 0 {
		s.dims = 0
	}
}

// cloneChunks deep-copies chunks so callers cannot mutate stored state.
func cloneChunks(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		c.Provenance = append([]domain.Provenance(nil), c.Provenance...)
		out[i] = c
	}
	return out
}
