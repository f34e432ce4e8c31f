// Package chunker provides a page-aware fixed-size text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// pageSeparator joins consecutive pages in the chunking stream.
const pageSeparator = "\n\n"

// Processor splits page text into fixed-size, overlapping chunks. Chunks may
// span page boundaries; each records every page it covers.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// pageSpan marks where a page's text sits in the joined rune stream.
type pageSpan struct {
	start, end int
	page       domain.PageText
}

// Process splits the document's pages into chunks.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.ParsedDocument, _ []domain.Chunk) ([]domain.Chunk, error) {
	text, spans := join(doc.Pages)
	if len(text) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(text)/(p.chunkSize-p.overlap)+1)
	start := 0
	for start < len(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := p.breakPoint(text, start)
		content := strings.TrimSpace(string(text[start:end]))
		if content != "" {
			position := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:         domain.ChunkID(doc.Document.ID, position),
				DocumentID: doc.Document.ID,
				Position:   position,
				Content:    content,
				Provenance: provenance(text, spans, start, end),
			})
		}

		if end >= len(text) {
			break
		}
		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// breakPoint returns the end of the chunk starting at start, preferring the
// last whitespace in the second half of the window.
func (p *Processor) breakPoint(text []rune, start int) int {
	end := start + p.chunkSize
	if end >= len(text) {
		return len(text)
	}
	floor := end - p.chunkSize/2
	for i := end; i > floor && i > start; i-- {
		if unicode.IsSpace(text[i-1]) {
			return i
		}
	}
	return end
}

// join concatenates page texts and records the span of each page.
func join(pages []domain.PageText) ([]rune, []pageSpan) {
	var b strings.Builder
	spans := make([]pageSpan, 0, len(pages))
	offset := 0
	for i, page := range pages {
		if i > 0 {
			b.WriteString(pageSeparator)
			offset += len([]rune(pageSeparator))
		}
		n := len([]rune(page.Text))
		spans = append(spans, pageSpan{start: offset, end: offset + n, page: page})
		b.WriteString(page.Text)
		offset += n
	}

	text := []rune(b.String())
	if strings.TrimSpace(string(text)) == "" {
		return nil, spans
	}
	return text, spans
}

// provenance lists the pages contributing non-space text to [start, end).
func provenance(text []rune, spans []pageSpan, start, end int) []domain.Provenance {
	var prov []domain.Provenance
	for _, s := range spans {
		from, to := max(s.start, start), min(s.end, end)
		if from >= to || !hasText(text[from:to]) {
			continue
		}
		prov = append(prov, domain.Provenance{Page: s.page.Number, Bounds: s.page.Bounds})
	}
	return prov
}

func hasText(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
