package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// createTestDocument creates a test document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, docID string) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.DocumentStore().SaveDocument(context.Background(), &domain.Document{
		ID:         docID,
		Title:      "Test Document " + docID,
		SourcePath: "/library/" + docID + ".pdf",
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}

func testChunks(docID string, vectors ...[]float32) []domain.Chunk {
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(docID, i),
			DocumentID: docID,
			Position:   i,
			Content:    fmt.Sprintf("content %d", i),
			Embedding:  v,
			Provenance: []domain.Provenance{
				{Page: i + 1, Bounds: domain.Rect{X: 10, Y: 20, Width: 300, Height: 40}},
			},
		}
	}
	return chunks
}

// ==================== Store Creation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := setupTestStore(t)
	assert.FileExists(t, store.Path())
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestFloat32Encoding_RoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.70710677, 3.4e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

// ==================== Document Store Tests ====================

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()
	createTestDocument(t, store, "doc-1")

	doc, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Document doc-1", doc.Title)
	assert.Equal(t, "/library/doc-1.pdf", doc.SourcePath)
	assert.Equal(t, domain.StatusPending, doc.Status)

	doc.Status = domain.StatusFailed
	doc.LastError = "provider unreachable"
	require.NoError(t, docs.SaveDocument(ctx, doc))

	updated, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, updated.Status)
	assert.Equal(t, "provider unreachable", updated.LastError)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.DocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_RejectsUnknownStatus(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()

	_, err := store.db.Exec(`
		INSERT INTO documents (id, status, created_at, updated_at) VALUES ('x', 'queued', ?, ?)
	`, now, now)
	assert.Error(t, err, "schema check constraint rejects unknown statuses")
}

func TestDocumentStore_ListDocuments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "b")
	createTestDocument(t, store, "a")

	docs, err := store.DocumentStore().ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
}

func TestDocumentStore_DeleteDocument_CascadesChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1")
	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1", testChunks("doc-1", []float32{1, 0})))

	require.NoError(t, store.DocumentStore().DeleteDocument(ctx, "doc-1"))

	all, err := store.ChunkStore().AllChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.ErrorIs(t, store.DocumentStore().DeleteDocument(ctx, "doc-1"), domain.ErrNotFound)
}

// ==================== Chunk Store Tests ====================

func TestChunkStore_Put_RoundTripsProvenance(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1")
	chunks := testChunks("doc-1", []float32{1, 0}, []float32{0.7, 0.7})

	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1", chunks))

	stored, err := store.ChunkStore().ChunksForDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, chunks, stored)

	doc, err := store.DocumentStore().GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.TotalChunks)
}

func TestChunkStore_Put_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1")
	chunks := testChunks("doc-1", []float32{1, 0}, []float32{0, 1})

	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1", chunks))
	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1", chunks))

	all, err := store.ChunkStore().AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	doc, _ := store.DocumentStore().GetDocument(ctx, "doc-1")
	assert.Equal(t, 2, doc.TotalChunks)
}

func TestChunkStore_Put_ReplacesStaleChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1")

	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1",
		testChunks("doc-1", []float32{1, 0}, []float32{0, 1}, []float32{1, 1})))
	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1", testChunks("doc-1", []float32{0, 1})))

	stored, err := store.ChunkStore().ChunksForDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []float32{0, 1}, stored[0].Embedding)
}

func TestChunkStore_Put_UnknownDocument(t *testing.T) {
	store := setupTestStore(t)

	err := store.ChunkStore().Put(context.Background(), "missing", testChunks("missing", []float32{1}))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_Put_DimensionMismatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1")
	createTestDocument(t, store, "doc-2")
	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1", testChunks("doc-1", []float32{1, 0})))

	err := store.ChunkStore().Put(ctx, "doc-2", testChunks("doc-2", []float32{1, 0, 0}))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	stored, err := store.ChunkStore().ChunksForDocument(ctx, "doc-2")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestChunkStore_Put_CancelledCommitsNothing(t *testing.T) {
	store := setupTestStore(t)
	createTestDocument(t, store, "doc-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.ChunkStore().Put(ctx, "doc-1", testChunks("doc-1", []float32{1}))
	assert.Error(t, err)

	stored, err := store.ChunkStore().ChunksForDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestChunkStore_DeleteChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1")
	require.NoError(t, store.ChunkStore().Put(ctx, "doc-1", testChunks("doc-1", []float32{1, 0})))

	require.NoError(t, store.ChunkStore().DeleteChunks(ctx, "doc-1"))

	stored, err := store.ChunkStore().ChunksForDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
	doc, _ := store.DocumentStore().GetDocument(ctx, "doc-1")
	assert.Zero(t, doc.TotalChunks)
	assert.ErrorIs(t, store.ChunkStore().DeleteChunks(ctx, "missing"), domain.ErrNotFound)
}

func TestChunkStore_ChunksForDocument_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.ChunkStore().ChunksForDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
