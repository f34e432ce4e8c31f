package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func createTestSession(t *testing.T, store *Store, id string) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SessionStore().SaveSession(context.Background(), &domain.ChatSession{
		ID: id, Title: "Session " + id, CreatedAt: now, UpdatedAt: now,
	}))
}

func pinned(sessionID, id, docID string) domain.ContextItem {
	return domain.ContextItem{
		ID:        id,
		SessionID: sessionID,
		PinnedAt:  time.Now().UTC().Truncate(time.Second),
		Context: domain.ExplicitContext{
			ID:            id,
			Shape:         domain.ExplicitSelection,
			DocumentID:    docID,
			DocumentTitle: "Paper",
			Content:       "selected words",
			TokenCount:    3,
			Location: &domain.SelectionLocation{
				Pages:     []int{4},
				Rects:     []domain.PageRect{{Page: 4, Bounds: domain.Rect{X: 1, Y: 2, Width: 3, Height: 4}}},
				CharStart: 10,
				CharEnd:   24,
			},
		},
	}
}

func TestSessionStore_SaveGetList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestSession(t, store, "s1")

	session, err := store.SessionStore().GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Session s1", session.Title)

	_, err = store.SessionStore().GetSession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sessions, err := store.SessionStore().ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionStore_AddItem_IdempotentAndRoundTrips(t *testing.T) {
	store := setupTestStore(t)
	sessions := store.SessionStore()
	ctx := context.Background()
	createTestSession(t, store, "s1")
	item := pinned("s1", "sel-1", "doc-1")

	added, err := sessions.AddItem(ctx, item)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = sessions.AddItem(ctx, item)
	require.NoError(t, err)
	assert.False(t, added)

	items, err := sessions.Items(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.Context, items[0].Context)
}

func TestSessionStore_AddItem_UnknownSession(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.SessionStore().AddItem(context.Background(), pinned("missing", "i", "doc-1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_ItemsKeepPinOrder(t *testing.T) {
	store := setupTestStore(t)
	sessions := store.SessionStore()
	ctx := context.Background()
	createTestSession(t, store, "s1")
	for _, id := range []string{"c", "a", "b"} {
		_, err := sessions.AddItem(ctx, pinned("s1", id, "doc-1"))
		require.NoError(t, err)
	}

	require.NoError(t, sessions.RemoveItem(ctx, "s1", "a"))

	items, err := sessions.Items(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

func TestSessionStore_ClearAndDetach(t *testing.T) {
	store := setupTestStore(t)
	sessions := store.SessionStore()
	ctx := context.Background()
	createTestSession(t, store, "s1")
	createTestSession(t, store, "s2")
	_, _ = sessions.AddItem(ctx, pinned("s1", "a", "doc-1"))
	_, _ = sessions.AddItem(ctx, pinned("s1", "b", "doc-2"))
	_, _ = sessions.AddItem(ctx, pinned("s2", "c", "doc-1"))

	removed, err := sessions.RemoveItemsForDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	require.NoError(t, sessions.ClearItems(ctx, "s1"))
	items, err := sessions.Items(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items)
}
