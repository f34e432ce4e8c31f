package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestFormatPages(t *testing.T) {
	tests := []struct {
		pages []int
		want  string
	}{
		{nil, ""},
		{[]int{3}, "p. 3"},
		{[]int{3, 4, 5}, "pp. 3-5"},
		{[]int{2, 4, 5}, "pp. 2, 4-5"},
		{[]int{1, 3, 5}, "pp. 1, 3, 5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPages(tt.pages), "pages %v", tt.pages)
	}
}

func TestRenderBundle(t *testing.T) {
	bundle := domain.ContextBundle{Sources: []domain.ContextSource{
		domain.ExplicitContext{
			ID:            "sel",
			Shape:         domain.ExplicitSelection,
			DocumentTitle: "Guide",
			Content:       "  selected text \n",
			Location:      &domain.SelectionLocation{Pages: []int{4}},
		},
		domain.ExplicitContext{
			ID:            "doc",
			Shape:         domain.ExplicitDocument,
			DocumentTitle: "Notes",
			Content:       "all the notes",
		},
		domain.ExplicitContext{
			ID:         "range",
			Shape:      domain.ExplicitPageRange,
			DocumentID: "d1",
			Content:    "range text",
			Range:      &domain.PageRange{From: 2, To: 3},
		},
		domain.RetrievedContext{
			Chunk: domain.Chunk{
				ID:         "d2#0",
				DocumentID: "d2",
				Content:    "retrieved text",
				Provenance: []domain.Provenance{{Page: 9}},
			},
			DocumentTitle: "Manual",
		},
	}}

	want := "[Guide, selection on p. 4]\nselected text\n\n" +
		"[Notes, entire document]\nall the notes\n\n" +
		"[d1, pp. 2-3]\nrange text\n\n" +
		"[Manual, p. 9]\nretrieved text"
	assert.Equal(t, want, RenderBundle(bundle))
}

func TestRenderBundle_Empty(t *testing.T) {
	assert.Empty(t, RenderBundle(domain.ContextBundle{}))
}
