package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// ChunkingProvider turns a document's source bytes into embedded chunks.
// One call per document; there are no partial results.
type ChunkingProvider interface {
	// Process parses, chunks and embeds content. Chunks come back ordered
	// by position with IDs from domain.ChunkID and page provenance.
	Process(ctx context.Context, doc domain.Document, content []byte) (*ProviderResult, error)
}

// ProviderResult is the output of a successful provider call.
type ProviderResult struct {
	// Title is the document title found in the source, if any.
	Title string

	// Chunks are the embedded chunks, ordered by position.
	Chunks []domain.Chunk
}

// SourceLoader reads the source bytes of a document.
type SourceLoader interface {
	// Load returns the raw bytes and MIME type of the document's source.
	Load(ctx context.Context, doc domain.Document) (*domain.RawDocument, error)
}

// SourceIndex locates importable source files.
type SourceIndex interface {
	// Resolve checks that path names an importable file and returns its
	// canonical absolute form. Returns domain.ErrNotFound for a missing
	// file and domain.ErrUnsupportedType for an unsupported extension.
	Resolve(path string) (string, error)

	// Scan lists the importable files under root in lexical order.
	Scan(root string) ([]string, error)
}
