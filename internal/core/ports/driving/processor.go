package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// DocumentProcessor drives documents through ingestion.
type DocumentProcessor interface {
	// Process chunks and embeds one document. Allowed from pending, failed
	// and completed; a document already processing returns
	// domain.ErrProcessingInProgress.
	Process(ctx context.Context, documentID string) error

	// ProcessAll processes documents concurrently. Failures are isolated
	// per document and returned joined.
	ProcessAll(ctx context.Context, documentIDs []string) error

	// ProcessPending processes every pending or failed document.
	ProcessPending(ctx context.Context) error

	// Cancel aborts an in-flight run. Returns false if none was running.
	Cancel(documentID string) bool

	// Subscribe streams status transitions until ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan domain.StatusChange, error)
}
