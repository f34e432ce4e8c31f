package cli

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestImportCmd_RequiresPath(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, _, err := execute(t, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestImportCmd_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, _, err := execute(t, "import", "report.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "library service not configured")
}

func TestImportCmd_File(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	path := env.writeFile(t, "notes.txt", "the board met")

	out, _, err := execute(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Imported 1 document(s).")

	docs, err := env.library.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.StatusPending, docs[0].Status)
}

func TestImportCmd_SameFileTwiceKeepsOneDocument(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	path := env.writeFile(t, "notes.txt", "the board met")

	_, _, err := execute(t, "import", path)
	require.NoError(t, err)
	_, _, err = execute(t, "import", path)
	require.NoError(t, err)

	docs, err := env.library.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestImportCmd_Directory(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	env.writeFile(t, "a.txt", "revenue grew")
	env.writeFile(t, "sub/b.md", "# Risk\n\nrisk is low")
	env.writeFile(t, "ignored.bin", "\x00\x01")

	out, _, err := execute(t, "import", env.dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 document(s).")
}

func TestImportCmd_MissingFile(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()

	_, _, err := execute(t, "import", env.dir+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to import")
}

func TestImportCmd_WithProcess(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	path := env.writeFile(t, "notes.txt", "revenue grew this quarter")

	out, _, err := execute(t, "import", "--process", "--plain", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 ready, 0 failed, 0 not finished")

	docs, err := env.library.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.StatusCompleted, docs[0].Status)
	assert.Positive(t, docs[0].TotalChunks)
}

func TestListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, _, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents in the library.")
}

func TestListCmd_StatusFilter(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	ready := env.processed(t, "ready.txt", "revenue grew")
	pending := env.importFile(t, "pending.txt", "board minutes")

	out, _, err := execute(t, "list", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, ready.ID)
	assert.NotContains(t, out, pending.ID)
}

func TestListCmd_InvalidStatus(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, _, err := execute(t, "list", "--status", "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestListCmd_JSON(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	doc := env.importFile(t, "notes.txt", "board minutes")

	out, _, err := execute(t, "list", "--json")
	require.NoError(t, err)

	var docs []domain.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
}

func TestRemoveCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	doc := env.processed(t, "notes.txt", "revenue grew")

	out, _, err := execute(t, "remove", doc.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+doc.ID)

	_, err = env.library.Get(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := env.docs.ChunksForDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRemoveCmd_Unknown(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, _, err := execute(t, "remove", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	env.processed(t, "ready.txt", "revenue grew")
	env.importFile(t, "pending.txt", "board minutes")

	out, _, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:  2")
	assert.Contains(t, out, "Ready:      1")
	assert.Contains(t, out, "Pending:    1")
}

func TestStatusCmd_JSON(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	env.importFile(t, "pending.txt", "board minutes")

	out, _, err := execute(t, "status", "--json")
	require.NoError(t, err)

	var summary domain.ProcessingSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Pending)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a", firstLine("a\nb"))
	assert.Equal(t, "single", firstLine("single"))
	assert.Equal(t, "", firstLine(""))
}

// removeSource deletes a document's file so loading it fails.
func removeSource(t *testing.T, doc *domain.Document) {
	t.Helper()
	require.NoError(t, os.Remove(doc.SourcePath))
}
