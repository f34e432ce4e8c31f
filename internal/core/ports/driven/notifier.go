package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// StatusNotifier carries processing status transitions to subscribers.
type StatusNotifier interface {
	// Publish emits a status change. Delivery is best-effort.
	Publish(ctx context.Context, change domain.StatusChange) error

	// Subscribe returns a channel of status changes that is closed when
	// ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan domain.StatusChange, error)

	// Close releases resources.
	Close() error
}
