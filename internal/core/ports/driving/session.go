package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// SessionBinder manages chat sessions and their pinned context items.
type SessionBinder interface {
	// CreateSession starts a new, empty session.
	CreateSession(ctx context.Context, title string) (*domain.ChatSession, error)

	// GetSession returns a session by ID.
	GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)

	// ListSessions returns sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]domain.ChatSession, error)

	// AddItem pins an explicit context. Returns false when an item with the
	// same ID is already pinned.
	AddItem(ctx context.Context, sessionID string, ec domain.ExplicitContext) (bool, error)

	// RemoveItem unpins an item. Removing an absent item is not an error.
	RemoveItem(ctx context.Context, sessionID, itemID string) error

	// ClearAll unpins every item of the session.
	ClearAll(ctx context.Context, sessionID string) error

	// Items returns the session's pinned items in pin order.
	Items(ctx context.Context, sessionID string) ([]domain.ContextItem, error)

	// ProcessingSummary counts library documents per status.
	ProcessingSummary(ctx context.Context) (domain.ProcessingSummary, error)
}
