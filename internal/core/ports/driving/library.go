package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// LibraryService manages the documents in the user's library.
type LibraryService interface {
	// Import adds a pending document for the file at path. Importing a path
	// already in the library returns the existing document.
	Import(ctx context.Context, path string) (*domain.Document, error)

	// ImportDirectory imports every supported file under dir.
	ImportDirectory(ctx context.Context, dir string) ([]domain.Document, error)

	// Get returns a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// FindByPath returns the document imported from path.
	FindByPath(ctx context.Context, path string) (*domain.Document, error)

	// List returns all documents in import order.
	List(ctx context.Context) ([]domain.Document, error)

	// Remove cancels processing, deletes the document and its chunks and
	// unpins session items that reference it.
	Remove(ctx context.Context, documentID string) error
}
