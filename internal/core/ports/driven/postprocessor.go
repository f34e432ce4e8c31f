package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// PostProcessor turns parsed pages into chunks or refines existing chunks.
// PostProcessors are chained in a pipeline (chunking, then embedding).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the parsed document and the chunks produced so far.
	// A creating processor (the chunker) receives nil chunks.
	Process(ctx context.Context, doc *domain.ParsedDocument, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, doc *domain.ParsedDocument) ([]domain.Chunk, error)
}
