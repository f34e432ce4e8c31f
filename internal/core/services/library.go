package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// Retirer stops processing of a document that is being removed.
type Retirer interface {
	// Retire cancels any in-flight run and refuses later runs for the
	// document. It reports whether a run was cancelled.
	Retire(documentID string) bool
}

// LibraryService manages the documents in the library.
type LibraryService struct {
	docStore     driven.DocumentStore
	sessionStore driven.SessionStore
	index        driven.SourceIndex
	retirer      Retirer
	now          func() time.Time
}

// NewLibraryService creates a new library service.
// The sessionStore and retirer parameters are optional (can be nil).
func NewLibraryService(
	docStore driven.DocumentStore,
	sessionStore driven.SessionStore,
	index driven.SourceIndex,
	retirer Retirer,
) *LibraryService {
	return &LibraryService{
		docStore:     docStore,
		sessionStore: sessionStore,
		index:        index,
		retirer:      retirer,
		now:          time.Now,
	}
}

// Import implements driving.LibraryService.
func (s *LibraryService) Import(ctx context.Context, path string) (*domain.Document, error) {
	resolved, err := s.index.Resolve(path)
	if err != nil {
		return nil, err
	}

	existing, err := s.FindByPath(ctx, resolved)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	doc := &domain.Document{
		ID:         uuid.New().String(),
		Title:      titleFromPath(resolved),
		SourcePath: resolved,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	logger.Debug("imported %s as %s", resolved, doc.ID)
	return doc, nil
}

// ImportDirectory implements driving.LibraryService.
func (s *LibraryService) ImportDirectory(ctx context.Context, dir string) ([]domain.Document, error) {
	paths, err := s.index.Scan(dir)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(paths))
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		doc, err := s.Import(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", p, err))
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, errors.Join(errs...)
}

// Get implements driving.LibraryService.
func (s *LibraryService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// FindByPath implements driving.LibraryService.
func (s *LibraryService) FindByPath(ctx context.Context, path string) (*domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	clean := filepath.Clean(path)
	for i := range docs {
		if filepath.Clean(docs[i].SourcePath) == clean {
			return &docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// List implements driving.LibraryService.
func (s *LibraryService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Remove implements driving.LibraryService.
func (s *LibraryService) Remove(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	if s.retirer != nil && s.retirer.Retire(documentID) {
		logger.Debug("cancelled processing of %s", documentID)
	}

	// Items must never reference a missing document, so detach first.
	if s.sessionStore != nil {
		n, err := s.sessionStore.RemoveItemsForDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("detach session items: %w", err)
		}
		if n > 0 {
			logger.Debug("detached %d session items from %s", n, documentID)
		}
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// titleFromPath derives a display title from a file name:
// "annual_report-2024.pdf" becomes "annual report 2024".
func titleFromPath(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" {
		return base
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(title)
}
