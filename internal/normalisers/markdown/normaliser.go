// Package markdown normalises Markdown files into a single page of plain text.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	codeBlockRe     = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe    = regexp.MustCompile("`[^`]+`")
	imagesRe        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linksRe         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingsRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe    = regexp.MustCompile(`(?m)^>\s*`)
	hrRe            = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkersRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedListRe  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewlinesRe = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise strips Markdown formatting. The title comes from the first
// H1 heading, falling back to the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	return &domain.ParsedDocument{
		Title: extractMarkdownTitle(content, raw.Path),
		Pages: []domain.PageText{{Number: 1, Text: stripMarkdown(content)}},
	}, nil
}

// extractMarkdownTitle extracts a title from the markdown content or falls back to filename.
func extractMarkdownTitle(content, path string) string {
	// Try to find first H1 heading (# Title)
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	return normalisers.TitleFromPath(path)
}

// stripMarkdown removes common markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	// Remove code blocks (```...```)
	content = codeBlockRe.ReplaceAllString(content, "")

	// Remove inline code (`code`)
	content = inlineCodeRe.ReplaceAllString(content, "")

	// Remove images ![alt](url)
	content = imagesRe.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	content = linksRe.ReplaceAllString(content, "$1")

	// Remove heading markers (# ## ### etc)
	content = headingsRe.ReplaceAllString(content, "")

	// Remove bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = strings.ReplaceAll(content, "_", " ")

	// Remove blockquote markers
	content = blockquoteRe.ReplaceAllString(content, "")

	// Remove horizontal rules
	content = hrRe.ReplaceAllString(content, "")

	// Remove list markers (- * + and numbered)
	content = listMarkersRe.ReplaceAllString(content, "")
	content = numberedListRe.ReplaceAllString(content, "")

	// Collapse multiple newlines
	content = multiNewlinesRe.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
