package driven

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// SessionStore persists chat sessions and their pinned context items.
type SessionStore interface {
	// SaveSession stores or updates a session.
	SaveSession(ctx context.Context, session *domain.ChatSession) error

	// GetSession retrieves a session by ID.
	// Returns domain.ErrNotFound if the session does not exist.
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)

	// ListSessions returns all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]domain.ChatSession, error)

	// AddItem pins an item to its session. Returns false without error
	// when an item with the same ID is already pinned to that session.
	AddItem(ctx context.Context, item domain.ContextItem) (bool, error)

	// RemoveItem unpins an item. Removing an absent item is a no-op.
	RemoveItem(ctx context.Context, sessionID, itemID string) error

	// ClearItems removes every item of a session.
	ClearItems(ctx context.Context, sessionID string) error

	// Items returns the items of a session in the order they were pinned.
	Items(ctx context.Context, sessionID string) ([]domain.ContextItem, error)

	// RemoveItemsForDocument detaches items referencing a document from
	// every session and returns how many were removed.
	RemoveItemsForDocument(ctx context.Context, documentID string) (int, error)
}
