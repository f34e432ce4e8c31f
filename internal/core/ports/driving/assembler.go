package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// ContextAssembler builds the context bundle for a chat turn.
type ContextAssembler interface {
	// Build merges explicit, pinned and retrieved contexts into a budgeted,
	// rendered bundle. Retrieval failures degrade to explicit-only context
	// except for dimension mismatches, which are returned.
	Build(ctx context.Context, req domain.BuildRequest) (*domain.BuildResult, error)

	// SelectionContext builds an explicit context from selected text.
	SelectionContext(ctx context.Context, documentID, text string, loc *domain.SelectionLocation) (domain.ExplicitContext, error)

	// PageRangeContext builds an explicit context from the stored chunks
	// covering pages from..to of a document.
	PageRangeContext(ctx context.Context, documentID string, from, to int) (domain.ExplicitContext, error)

	// DocumentContext builds an explicit context covering a whole document.
	DocumentContext(ctx context.Context, documentID string) (domain.ExplicitContext, error)
}
