package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// SimilaritySearch ranks stored chunks against a query.
type SimilaritySearch interface {
	// Search returns up to limit chunks of completed documents by
	// descending cosine similarity to query.
	Search(ctx context.Context, query []float32, limit int) ([]domain.ScoredChunk, error)

	// SearchText embeds text and searches with the result.
	SearchText(ctx context.Context, text string, limit int) ([]domain.ScoredChunk, error)
}
