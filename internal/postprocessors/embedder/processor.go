// Package embedder provides the post-processor that attaches embeddings to chunks.
package embedder

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultBatchSize is the number of chunks sent per provider call.
const DefaultBatchSize = 64

// Processor embeds chunk content in batches.
type Processor struct {
	svc       driven.EmbeddingService
	batchSize int
}

// New creates an embedder using svc. A non-positive batchSize uses DefaultBatchSize.
func New(svc driven.EmbeddingService, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Processor{svc: svc, batchSize: batchSize}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "embedder"
}

// Process fills the Embedding of every chunk. The input slice is not modified.
func (p *Processor) Process(ctx context.Context, _ *domain.ParsedDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	if p.svc == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)

	for start := 0; start < len(out); start += p.batchSize {
		end := min(start+p.batchSize, len(out))
		texts := make([]string, 0, end-start)
		for _, c := range out[start:end] {
			texts = append(texts, c.Content)
		}

		vectors, err := p.svc.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts",
				start, end-1, len(vectors), len(texts))
		}
		for i, v := range vectors {
			out[start+i].Embedding = v
		}
	}

	return out, nil
}
