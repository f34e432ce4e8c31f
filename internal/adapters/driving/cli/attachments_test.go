package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestParsePageSpec(t *testing.T) {
	tests := []struct {
		spec     string
		id       string
		from, to int
	}{
		{spec: "doc:3", id: "doc", from: 3, to: 3},
		{spec: "doc:2-5", id: "doc", from: 2, to: 5},
		{spec: "doc: 1 - 2", id: "doc", from: 1, to: 2},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			id, from, to, err := parsePageSpec(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestParsePageSpec_Invalid(t *testing.T) {
	for _, spec := range []string{"", "doc", ":1", "doc:", "doc:x", "doc:1-y", "doc:0", "doc:5-2"} {
		t.Run(spec, func(t *testing.T) {
			_, _, _, err := parsePageSpec(spec)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAttachmentFlags_ResolveOrder(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	doc := env.processed(t, "report.txt", "Board approved the plan.")

	a := attachmentFlags{
		selections: []string{doc.ID + ":approved"},
		pages:      []string{doc.ID + ":1"},
		documents:  []string{doc.ID},
	}
	got, err := a.resolve(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.ExplicitDocument, got[0].Shape)
	assert.Equal(t, domain.ExplicitPageRange, got[1].Shape)
	assert.Equal(t, domain.ExplicitSelection, got[2].Shape)
}

func TestAttachmentFlags_BadSelection(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	a := attachmentFlags{selections: []string{"no-separator"}}
	_, err := a.resolve(t.Context())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAttachmentFlags_Empty(t *testing.T) {
	var a attachmentFlags
	assert.True(t, a.empty())

	got, err := a.resolve(t.Context())
	require.NoError(t, err)
	assert.Nil(t, got)
}
