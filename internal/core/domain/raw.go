package domain

// RawDocument represents the source bytes of a document before extraction.
type RawDocument struct {
	// DocumentID links to the Document being processed.
	DocumentID string

	// Path is the source file location.
	Path string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// PageText is the extracted text of a single page.
type PageText struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page's text content.
	Text string

	// Bounds is the page's media box, zero when unknown.
	Bounds Rect
}

// ParsedDocument is a document after text extraction, before chunking.
type ParsedDocument struct {
	// Document is the document being processed.
	Document Document

	// Title is the title found in the content, empty if none.
	Title string

	// Pages holds the extracted text page by page.
	Pages []PageText
}

// HasText reports whether any page carries non-whitespace text.
func (p *ParsedDocument) HasText() bool {
	for _, page := range p.Pages {
		for _, r := range page.Text {
			if r != ' ' && r != '\n' && r != '\t' && r != '\r' && r != '\f' {
				return true
			}
		}
	}
	return false
}
