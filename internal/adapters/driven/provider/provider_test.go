package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// hashEmbedder returns a deterministic two-dimensional vector per text.
type hashEmbedder struct {
	err error
}

func (h *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (h *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if h.err != nil {
		return nil, h.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = h.Embed(ctx, t)
	}
	return out, nil
}

func (h *hashEmbedder) Dimensions() int              { return 2 }
func (h *hashEmbedder) ModelName() string            { return "hash" }
func (h *hashEmbedder) Ping(_ context.Context) error { return nil }
func (h *hashEmbedder) Close() error                 { return nil }

func newProvider(t *testing.T, svc *hashEmbedder) *Provider {
	t.Helper()
	p, err := NewDefault(svc, domain.ChunkingSettings{ChunkSize: 40, Overlap: 0})
	require.NoError(t, err)
	return p
}

func TestProcess_PlainTextPages(t *testing.T) {
	p := newProvider(t, &hashEmbedder{})
	doc := domain.Document{ID: "doc-1", SourcePath: "/lib/lecture_notes.txt"}
	content := []byte("Page one talks about attention.\fPage two talks about transformers.")

	result, err := p.Process(context.Background(), doc, content)
	require.NoError(t, err)

	assert.Equal(t, "lecture notes", result.Title)
	require.NotEmpty(t, result.Chunks)
	for i, c := range result.Chunks {
		assert.Equal(t, domain.ChunkID("doc-1", i), c.ID)
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Len(t, c.Embedding, 2)
		assert.NotEmpty(t, c.Pages())
	}
	last := result.Chunks[len(result.Chunks)-1]
	assert.Contains(t, last.Pages(), 2)
}

func TestProcess_Markdown(t *testing.T) {
	p := newProvider(t, &hashEmbedder{})
	doc := domain.Document{ID: "md", SourcePath: "readme.md"}

	result, err := p.Process(context.Background(), doc, []byte("# Guide\n\nSome **bold** words."))
	require.NoError(t, err)
	assert.Equal(t, "Guide", result.Title)
	require.Len(t, result.Chunks, 1)
	assert.False(t, strings.Contains(result.Chunks[0].Content, "**"))
}

func TestProcess_EmptySource(t *testing.T) {
	p := newProvider(t, &hashEmbedder{})

	result, err := p.Process(context.Background(), domain.Document{ID: "e", SourcePath: "empty.txt"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
}

func TestProcess_UnsupportedType(t *testing.T) {
	p := newProvider(t, &hashEmbedder{})

	_, err := p.Process(context.Background(), domain.Document{ID: "i", SourcePath: "photo.png"},
		[]byte("\x89PNG\r\n\x1a\n"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestProcess_EmbeddingFailure(t *testing.T) {
	boom := errors.New("embedding down")
	p := newProvider(t, &hashEmbedder{err: boom})

	_, err := p.Process(context.Background(), domain.Document{ID: "x", SourcePath: "a.txt"}, []byte("text"))
	assert.ErrorIs(t, err, boom)
}
