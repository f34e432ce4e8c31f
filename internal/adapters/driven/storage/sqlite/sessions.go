package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// SaveSession stores or updates a session.
func (s *sessionStore) SaveSession(ctx context.Context, session *domain.ChatSession) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at
	`, session.ID, session.Title, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *sessionStore) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *sessionStore) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at FROM sessions ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.ChatSession
		if err := rows.Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// AddItem pins an item. An item already pinned under the same ID is left as is.
func (s *sessionStore) AddItem(ctx context.Context, item domain.ContextItem) (bool, error) {
	if err := s.sessionExists(ctx, item.SessionID); err != nil {
		return false, err
	}

	contextJSON, err := json.Marshal(item.Context)
	if err != nil {
		return false, fmt.Errorf("marshalling context: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO context_items (id, session_id, document_id, context, pinned_at)
		VALUES (?, ?, ?, ?, ?)
	`, item.ID, item.SessionID, item.Context.DocumentID, string(contextJSON), item.PinnedAt)
	if err != nil {
		return false, fmt.Errorf("adding context item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

// RemoveItem unpins an item.
func (s *sessionStore) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	if err := s.sessionExists(ctx, sessionID); err != nil {
		return err
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM context_items WHERE session_id = ? AND id = ?", sessionID, itemID)
	if err != nil {
		return fmt.Errorf("removing context item: %w", err)
	}
	return nil
}

// ClearItems removes every item of a session.
func (s *sessionStore) ClearItems(ctx context.Context, sessionID string) error {
	if err := s.sessionExists(ctx, sessionID); err != nil {
		return err
	}
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM context_items WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("clearing context items: %w", err)
	}
	return nil
}

// Items returns the items of a session in pin order.
func (s *sessionStore) Items(ctx context.Context, sessionID string) ([]domain.ContextItem, error) {
	if err := s.sessionExists(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, session_id, context, pinned_at
		FROM context_items WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying context items: %w", err)
	}
	defer rows.Close()

	var items []domain.ContextItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		var item domain.ContextItem
		var contextJSON string
		if err := rows.Scan(&item.ID, &item.SessionID, &contextJSON, &item.PinnedAt); err != nil {
			return nil, fmt.Errorf("scanning context item: %w", err)
		}
		if err := json.Unmarshal([]byte(contextJSON), &item.Context); err != nil {
			return nil, fmt.Errorf("unmarshalling context: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating context items: %w", err)
	}
	return items, nil
}

// RemoveItemsForDocument detaches items referencing a document from every session.
func (s *sessionStore) RemoveItemsForDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM context_items WHERE document_id = ?", documentID)
	if err != nil {
		return 0, fmt.Errorf("removing context items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return int(n), nil
}

func (s *sessionStore) sessionExists(ctx context.Context, id string) error {
	var one int
	err := s.store.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	return nil
}
