// Package provider implements the chunking provider: extract page text with
// a normaliser, then chunk and embed it with the post-processor pipeline.
package provider

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
	"github.com/custodia-labs/pdfchat/internal/normalisers"
	"github.com/custodia-labs/pdfchat/internal/normalisers/docx"
	"github.com/custodia-labs/pdfchat/internal/normalisers/html"
	"github.com/custodia-labs/pdfchat/internal/normalisers/markdown"
	"github.com/custodia-labs/pdfchat/internal/normalisers/pdf"
	"github.com/custodia-labs/pdfchat/internal/normalisers/plaintext"
	"github.com/custodia-labs/pdfchat/internal/postprocessors"
)

// Ensure Provider implements the interface.
var _ driven.ChunkingProvider = (*Provider)(nil)

// Provider turns source bytes into embedded chunks.
type Provider struct {
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
}

// New creates a provider from an explicit registry and pipeline.
func New(registry driven.NormaliserRegistry, pipeline driven.PostProcessorPipeline) *Provider {
	return &Provider{normalisers: registry, pipeline: pipeline}
}

// NewDefault wires the built-in normalisers (PDF, plain text, Markdown,
// HTML, DOCX) and the chunker and embedder configured by chunking.
func NewDefault(svc driven.EmbeddingService, chunking domain.ChunkingSettings) (*Provider, error) {
	registry := normalisers.NewRegistry(pdf.New(), plaintext.New(), markdown.New(), html.New(), docx.New())

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors, svc)
	pipeline, err := postprocessors.NewPipelineFromConfig(processors, domain.PipelineConfigFor(chunking))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return New(registry, pipeline), nil
}

// Process implements driven.ChunkingProvider. A source that yields no text
// returns a result with no chunks; the caller decides whether that is an error.
func (p *Provider) Process(ctx context.Context, doc domain.Document, content []byte) (*driven.ProviderResult, error) {
	raw := &domain.RawDocument{
		DocumentID: doc.ID,
		Path:       doc.SourcePath,
		MIMEType:   normalisers.DetectMIMEType(doc.SourcePath, content),
		Content:    content,
	}

	parsed, err := p.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.SourcePath, err)
	}
	parsed.Document = doc

	result := &driven.ProviderResult{Title: parsed.Title}
	if !parsed.HasText() {
		logger.Debug("provider: %s has no extractable text", doc.ID)
		return result, nil
	}

	chunks, err := p.pipeline.Process(ctx, parsed)
	if err != nil {
		return nil, err
	}
	logger.Debug("provider: %s -> %d pages, %d chunks", doc.ID, len(parsed.Pages), len(chunks))

	result.Chunks = chunks
	return result, nil
}
