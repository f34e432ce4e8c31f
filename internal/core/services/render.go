package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// renderSeparator separates contexts in the rendered prompt text.
const renderSeparator = "\n\n"

// RenderBundle renders a bundle into prompt text. Each source is preceded by
// a bracketed provenance header; sources appear in bundle order.
func RenderBundle(bundle domain.ContextBundle) string {
	var b strings.Builder
	for i, src := range bundle.Sources {
		if i > 0 {
			b.WriteString(renderSeparator)
		}
		b.WriteString("[")
		b.WriteString(sourceHeader(src))
		b.WriteString("]\n")
		b.WriteString(strings.TrimSpace(src.Text()))
	}
	return b.String()
}

// sourceHeader describes where a context came from, e.g. "Report, pp. 3-4".
func sourceHeader(src domain.ContextSource) string {
	switch s := src.(type) {
	case domain.ExplicitContext:
		title := headerTitle(s.DocumentTitle, s.DocumentID)
		switch s.Shape {
		case domain.ExplicitDocument:
			return title + ", entire document"
		case domain.ExplicitSelection:
			if pages := FormatPages(s.PageNumbers()); pages != "" {
				return title + ", selection on " + pages
			}
			return title + ", selection"
		default:
			if pages := FormatPages(s.PageNumbers()); pages != "" {
				return title + ", " + pages
			}
			return title
		}
	case domain.RetrievedContext:
		title := headerTitle(s.DocumentTitle, s.Chunk.DocumentID)
		if pages := FormatPages(s.PageNumbers()); pages != "" {
			return title + ", " + pages
		}
		return title
	default:
		return src.SourceID()
	}
}

func headerTitle(title, documentID string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if documentID != "" {
		return documentID
	}
	return "Untitled"
}

// FormatPages renders ascending page numbers as a citation: "p. 3",
// "pp. 3-5" for a contiguous run, or "pp. 2, 4-5" otherwise.
// Returns "" for no pages.
func FormatPages(pages []int) string {
	switch len(pages) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("p. %d", pages[0])
	}

	var runs []string
	start, prev := pages[0], pages[0]
	flush := func() {
		if start == prev {
			runs = append(runs, strconv.Itoa(start))
		} else {
			runs = append(runs, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, p := range pages[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return "pp. " + strings.Join(runs, ", ")
}
