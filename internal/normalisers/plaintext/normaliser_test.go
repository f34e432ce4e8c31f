package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	normaliser := New()
	assert.Contains(t, normaliser.SupportedMIMETypes(), "text/plain")
	assert.Equal(t, 5, normaliser.Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Path:     "/path/to/document.txt",
		MIMEType: "text/plain",
		Content:  []byte("This is plain text content."),
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "document", doc.Title)
	assert.Equal(t, []domain.PageText{{Number: 1, Text: "This is plain text content."}}, doc.Pages)
}

func TestNormalise_FormFeedPages(t *testing.T) {
	raw := &domain.RawDocument{Path: "notes.txt", Content: []byte("one\ftwo\fthree")}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	assert.Equal(t, domain.PageText{Number: 3, Text: "three"}, doc.Pages[2])
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{Path: "/empty.txt"})
	require.NoError(t, err)
	assert.False(t, doc.HasText())
}

func TestNormalise_BinaryRejected(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte{0xff, 0xfe, 0x00}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestNormalise_TitleExtraction(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expectedTitle string
	}{
		{"simple filename", "/path/to/document.txt", "document"},
		{"underscores to spaces", "/path/my_document_name.txt", "my document name"},
		{"dashes to spaces", "/path/my-document-name.txt", "my document name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := New().Normalise(context.Background(), &domain.RawDocument{Path: tc.path, Content: []byte("x")})
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTitle, doc.Title)
		})
	}
}

func TestNormalise_UnicodeContent(t *testing.T) {
	content := "Héllo wörld 日本語 🎉"
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte(content)})
	require.NoError(t, err)
	assert.Equal(t, content, doc.Pages[0].Text)
}

func TestNormalise_LargeContent(t *testing.T) {
	content := strings.Repeat("lorem ipsum ", 100000)
	doc, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte(content)})
	require.NoError(t, err)
	assert.Len(t, doc.Pages[0].Text, len(content))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
