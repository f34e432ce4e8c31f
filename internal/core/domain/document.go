package domain

import (
	"fmt"
	"slices"
	"time"
)

// Document represents an imported source file in the user's library.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title. Set from the file name on import
	// and replaced by the provider's title once processing completes.
	Title string

	// SourcePath is the location of the source file.
	SourcePath string

	// Status is the ingestion state. Transitions are owned by the processor.
	Status ProcessingStatus

	// TotalChunks is the number of chunks currently stored (informational).
	TotalChunks int

	// LastError holds the failure message of the last failed run.
	LastError string

	// CreatedAt is when the document was imported.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// Searchable reports whether the document's chunks may appear in search results.
func (d Document) Searchable() bool {
	return d.Status == StatusCompleted
}

// Rect is an axis-aligned rectangle in PDF page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the rectangle carries no geometry.
func (r Rect) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

// Provenance locates a span of text within a source document.
type Provenance struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// Bounds is the region on the page. Zero when the extractor has no layout.
	Bounds Rect `json:"bounds"`
}

// Chunk represents an embedded span of document text.
// Documents own their chunks; deleting a document deletes its chunks.
type Chunk struct {
	// ID is derived from DocumentID and Position, see ChunkID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the sequence index within the document.
	Position int

	// Content is the text content of this chunk. Never empty.
	Content string

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Provenance lists the pages (and regions) the chunk was taken from.
	Provenance []Provenance
}

// ChunkID returns the stable identifier of the chunk at position within a document.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s#%d", documentID, position)
}

// Pages returns the distinct page numbers of the chunk in ascending order.
func (c Chunk) Pages() []int {
	return ProvenancePages(c.Provenance)
}

// ProvenancePages returns the distinct, ascending page numbers in prov.
func ProvenancePages(prov []Provenance) []int {
	seen := make(map[int]bool, len(prov))
	pages := make([]int, 0, len(prov))
	for _, p := range prov {
		if p.Page <= 0 || seen[p.Page] {
			continue
		}
		seen[p.Page] = true
		pages = append(pages, p.Page)
	}
	slices.Sort(pages)
	return pages
}

// ValidateChunks checks a replacement chunk set for documentID and returns
// the embedding dimensionality it shares. Every chunk must belong to the
// document, carry content and an embedding, and agree on dimensions.
func ValidateChunks(documentID string, chunks []Chunk) (int, error) {
	dims := 0
	for i := range chunks {
		c := &chunks[i]
		if c.DocumentID != documentID {
			return 0, fmt.Errorf("%w: chunk %s belongs to %q", ErrInvalidInput, c.ID, c.DocumentID)
		}
		if c.Content == "" {
			return 0, fmt.Errorf("%w: chunk %s has no content", ErrInvalidInput, c.ID)
		}
		if len(c.Embedding) == 0 {
			return 0, fmt.Errorf("%w: chunk %s has no embedding", ErrInvalidInput, c.ID)
		}
		if i == 0 {
			dims = len(c.Embedding)
			continue
		}
		if len(c.Embedding) != dims {
			return 0, fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
				ErrDimensionMismatch, c.ID, len(c.Embedding), dims)
		}
	}
	return dims, nil
}
