package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestProcessCmd_NothingToProcess(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, _, err := execute(t, "process", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to process.")
}

func TestProcessCmd_PendingDocuments(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	a := env.importFile(t, "a.txt", "revenue grew")
	b := env.importFile(t, "b.txt", "the board met")

	out, _, err := execute(t, "process", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, a.ID+"  ready")
	assert.Contains(t, out, b.ID+"  ready")
	assert.Contains(t, out, "2 ready, 0 failed, 0 not finished")
}

func TestProcessCmd_FailedDocumentReportsError(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	doc := env.importFile(t, "gone.txt", "revenue grew")
	removeSource(t, doc)

	out, _, err := execute(t, "process", "--plain", doc.ID)
	require.Error(t, err)
	assert.Equal(t, "1 document(s) failed to process", err.Error())
	assert.Contains(t, out, doc.ID+"  failed")
	assert.Contains(t, out, "0 ready, 1 failed, 0 not finished")

	got, err := env.library.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.NotEmpty(t, got.LastError)
}

func TestProcessCmd_ReprocessCompletedByID(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	doc := env.processed(t, "a.txt", "revenue grew")

	out, _, err := execute(t, "process", "--plain", doc.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "1 ready")
}

func TestRetryCmd_RejectsDocumentThatDidNotFail(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	doc := env.importFile(t, "a.txt", "revenue grew")

	_, _, err := execute(t, "retry", "--plain", doc.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only failed documents can be retried")
}

func TestRetryCmd_RetriesFailedAfterFix(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	doc := env.importFile(t, "flaky.txt", "revenue grew")
	removeSource(t, doc)
	require.Error(t, processorService.Process(context.Background(), doc.ID))

	env.writeFile(t, "flaky.txt", "revenue grew again")
	pending := env.importFile(t, "other.txt", "board minutes")

	out, _, err := execute(t, "retry", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, doc.ID+"  ready")
	assert.NotContains(t, out, pending.ID, "retry only picks failed documents")
}

func TestProcessCmd_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, _, err := execute(t, "process", "--plain", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor not configured")
}

func TestBatchError(t *testing.T) {
	assert.NoError(t, batchError(nil))
	assert.EqualError(t, batchError(fmt.Errorf("run: %w", context.Canceled)), "processing cancelled")
	assert.EqualError(t, batchError(errors.Join(errors.New("a"), errors.New("b"))), "2 document(s) failed to process")

	plain := errors.New("boom")
	assert.Equal(t, plain, batchError(plain))
}
