package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// DocumentStore persists documents and their processing status.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents ordered by creation time.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	// Returns domain.ErrNotFound if the document does not exist.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkStore persists embedded chunks keyed by document.
// It is the single shared mutable resource of the engine: all mutation
// goes through Put and DeleteChunks, which hold an exclusive region per
// document. Readers observe either the old or the new chunk set of a
// document, never a mix.
type ChunkStore interface {
	// Put replaces all chunks of a document with chunks and sets
	// Document.TotalChunks. Calling it twice with the same input leaves
	// the store unchanged. Returns domain.ErrNotFound for an unknown
	// document and domain.ErrDimensionMismatch when the embeddings do not
	// match the dimensionality of chunks already stored.
	Put(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// AllChunks returns every stored chunk for a full-corpus scan.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// ChunksForDocument returns the chunks of a document ordered by position.
	// Returns domain.ErrNotFound if the document does not exist.
	ChunksForDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks of a document and zeroes TotalChunks.
	DeleteChunks(ctx context.Context, documentID string) error
}
