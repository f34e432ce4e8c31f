// Package docx normalises Word documents. Page numbers follow the page
// breaks Word recorded when the file was last laid out, falling back to
// explicit page breaks.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Markers written while walking document.xml, resolved into pages later.
const (
	explicitBreak = '\f'
	renderedBreak = '\v'
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts paragraph text page by page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ParsedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive", domain.ErrInvalidInput)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return nil, err
	}
	text, err := walkDocument(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, documentPart, err)
	}

	title := coreTitle(reader)
	if title == "" {
		title = normalisers.TitleFromPath(raw.Path)
	}
	return &domain.ParsedDocument{
		Title: title,
		Pages: splitPages(text),
	}, nil
}

// readPart returns the bytes of the named archive member, nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	f, err := reader.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
	}
	return data, nil
}

// walkDocument streams document.xml, writing paragraph text separated by
// newlines and page markers where breaks occur.
func walkDocument(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	var b strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(data))
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				if attr(t, "type") == "page" {
					b.WriteRune(explicitBreak)
				} else {
					b.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				b.WriteRune(renderedBreak)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// splitPages turns marked text into pages. Rendered breaks already include
// explicit ones, so when present they alone decide the layout.
func splitPages(text string) []domain.PageText {
	sep := string(explicitBreak)
	if strings.ContainsRune(text, renderedBreak) {
		text = strings.ReplaceAll(text, string(explicitBreak), "\n")
		sep = string(renderedBreak)
	}

	parts := strings.Split(text, sep)
	pages := make([]domain.PageText, 0, len(parts))
	for i, p := range parts {
		pages = append(pages, domain.PageText{Number: i + 1, Text: strings.TrimSpace(p)})
	}
	// A trailing break does not start a page.
	if len(pages) > 1 && pages[len(pages)-1].Text == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

func attr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// coreProperties is the subset of docProps/core.xml that is read.
type coreProperties struct {
	Title string `xml:"title"`
}

// coreTitle returns the dc:title property, empty when missing.
func coreTitle(reader *zip.Reader) string {
	data, err := readPart(reader, corePart)
	if err != nil || len(data) == 0 {
		return ""
	}
	var core coreProperties
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
