package domain

import "time"

// ChatSession is a conversation that context items can be pinned to.
type ChatSession struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContextItem is an explicit context pinned to a session across turns.
type ContextItem struct {
	// ID is the item's identity within the session. Equal to Context.ID.
	ID string

	// SessionID links to the owning ChatSession.
	SessionID string

	// Context is the pinned context.
	Context ExplicitContext

	// PinnedAt is when the user pinned the item.
	PinnedAt time.Time
}
