// Package plaintext normalises plain text files. Form feeds, when present,
// separate pages; otherwise the whole file is page 1.
package plaintext

import (
	"context"
	"unicode/utf8"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts raw text into pages.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, domain.ErrUnsupportedType
	}

	texts := normalisers.SplitPages(string(raw.Content))
	pages := make([]domain.PageText, len(texts))
	for i, text := range texts {
		pages[i] = domain.PageText{Number: i + 1, Text: text}
	}

	return &domain.ParsedDocument{
		Title: normalisers.TitleFromPath(raw.Path),
		Pages: pages,
	}, nil
}
