package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// --- Mock implementations ---

// mockIndex implements driven.SourceIndex over a fixed set of paths.
type mockIndex struct {
	files map[string]bool
}

func (m *mockIndex) Resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if !m.files[clean] {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, clean)
	}
	return clean, nil
}

func (m *mockIndex) Scan(root string) ([]string, error) {
	var out []string
	for p := range m.files {
		if strings.HasPrefix(p, root+"/") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// mockRetirer records retired documents.
type mockRetirer struct {
	retired []string
}

func (m *mockRetirer) Retire(documentID string) bool {
	m.retired = append(m.retired, documentID)
	return true
}

// failingDetachStore is a session store whose detach always fails.
type failingDetachStore struct {
	*memory.SessionStore
}

func (failingDetachStore) RemoveItemsForDocument(_ context.Context, _ string) (int, error) {
	return 0, errors.New("disk full")
}

type libraryFixture struct {
	docs     *memory.DocumentStore
	sessions *memory.SessionStore
	retirer  *mockRetirer
	svc      *LibraryService
}

func newLibraryFixture(files ...string) *libraryFixture {
	index := &mockIndex{files: map[string]bool{}}
	for _, f := range files {
		index.files[f] = true
	}
	f := &libraryFixture{
		docs:     memory.NewDocumentStore(),
		sessions: memory.NewSessionStore(),
		retirer:  &mockRetirer{},
	}
	f.svc = NewLibraryService(f.docs, f.sessions, index, f.retirer)
	return f
}

// --- Tests ---

func TestLibraryService_Import(t *testing.T) {
	f := newLibraryFixture("/library/annual_report-2024.pdf")

	doc, err := f.svc.Import(context.Background(), "/library/annual_report-2024.pdf")

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "annual report 2024", doc.Title)
	assert.Equal(t, "/library/annual_report-2024.pdf", doc.SourcePath)
	assert.Equal(t, domain.StatusPending, doc.Status)

	stored, err := f.svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.SourcePath, stored.SourcePath)
}

func TestLibraryService_Import_SamePathReturnsExisting(t *testing.T) {
	f := newLibraryFixture("/library/a.pdf")

	first, err := f.svc.Import(context.Background(), "/library/a.pdf")
	require.NoError(t, err)
	second, err := f.svc.Import(context.Background(), "/library/./a.pdf")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	docs, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestLibraryService_Import_Missing(t *testing.T) {
	f := newLibraryFixture()

	_, err := f.svc.Import(context.Background(), "/library/nope.pdf")

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryService_ImportDirectory(t *testing.T) {
	f := newLibraryFixture("/library/a.pdf", "/library/sub/b.txt", "/elsewhere/c.md")

	docs, err := f.svc.ImportDirectory(context.Background(), "/library")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "/library/a.pdf", docs[0].SourcePath)
	assert.Equal(t, "/library/sub/b.txt", docs[1].SourcePath)
}

func TestLibraryService_FindByPath(t *testing.T) {
	f := newLibraryFixture("/library/a.pdf")
	doc, err := f.svc.Import(context.Background(), "/library/a.pdf")
	require.NoError(t, err)

	found, err := f.svc.FindByPath(context.Background(), "/library/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)

	_, err = f.svc.FindByPath(context.Background(), "/library/b.pdf")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryService_Remove(t *testing.T) {
	f := newLibraryFixture()
	ctx := context.Background()
	seedDocument(t, f.docs, "doc", domain.StatusCompleted, []float32{1, 0})
	seedDocument(t, f.docs, "keep", domain.StatusCompleted, []float32{0, 1})
	require.NoError(t, f.sessions.SaveSession(ctx, &domain.ChatSession{ID: "s"}))
	_, err := f.sessions.AddItem(ctx, domain.ContextItem{
		ID: "pin", SessionID: "s", Context: explicitText("pin", "doc", "text", 1),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, "doc"))

	assert.Equal(t, []string{"doc"}, f.retirer.retired)
	_, err = f.svc.Get(ctx, "doc")
	require.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := f.docs.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "keep", chunks[0].DocumentID)

	items, err := f.sessions.Items(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLibraryService_Remove_Unknown(t *testing.T) {
	f := newLibraryFixture()

	err := f.svc.Remove(context.Background(), "missing")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.retirer.retired)
}

func TestLibraryService_Remove_DetachFailureKeepsDocument(t *testing.T) {
	docs := memory.NewDocumentStore()
	sessions := failingDetachStore{memory.NewSessionStore()}
	svc := NewLibraryService(docs, sessions, &mockIndex{files: map[string]bool{}}, nil)
	seedDocument(t, docs, "doc", domain.StatusCompleted, []float32{1, 0})

	err := svc.Remove(context.Background(), "doc")

	require.Error(t, err)
	doc, err := svc.Get(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
}

func TestLibraryService_Remove_WhileProcessing(t *testing.T) {
	f := newProcessorFixture(t, "doc")
	f.provider.block = make(chan struct{})
	f.provider.started = make(chan string, 1)
	svc := NewLibraryService(f.store, nil, &mockIndex{files: map[string]bool{}}, f.svc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.svc.Process(context.Background(), "doc")
	}()
	<-f.provider.started

	require.NoError(t, svc.Remove(context.Background(), "doc"))
	require.ErrorIs(t, <-errCh, context.Canceled)

	_, err := f.store.GetDocument(context.Background(), "doc")
	require.ErrorIs(t, err, domain.ErrNotFound)
	all, err := f.store.AllChunks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	err = f.svc.Process(context.Background(), "doc")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "my paper", titleFromPath("/x/my_paper.pdf"))
	assert.Equal(t, "notes", titleFromPath("notes.md"))
	assert.Equal(t, ".pdf", titleFromPath("/x/.pdf"))
}
