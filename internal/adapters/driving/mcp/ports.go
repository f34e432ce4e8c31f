package mcp

import (
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search ranks stored chunks against a text query.
	Search driving.SimilaritySearch

	// Assembler builds rendered context bundles.
	Assembler driving.ContextAssembler

	// Sessions exposes pinned context and the processing summary.
	Sessions driving.SessionBinder

	// Library resolves document titles and backs the document resources.
	Library driving.LibraryService
}

// Validate ensures all required ports are set.
// Sessions and Library are optional; the tools and resources that need
// them are not registered when they are nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Assembler == nil {
		return ErrMissingAssembler
	}
	return nil
}
