package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.ChatSession
	items    map[string][]domain.ContextItem
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.ChatSession),
		items:    make(map[string][]domain.ContextItem),
	}
}

// SaveSession stores or updates a session.
func (s *SessionStore) SaveSession(_ context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *SessionStore) ListSessions(_ context.Context) ([]domain.ChatSession, error) {
	s.mu.RLock()
	result := make([]domain.ChatSession, 0, len(s.sessions))
	for id := range s.sessions {
		result = append(result, s.sessions[id])
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// AddItem pins an item to its session.
func (s *SessionStore) AddItem(_ context.Context, item domain.ContextItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[item.SessionID]; !ok {
		return false, domain.ErrNotFound
	}
	for _, existing := range s.items[item.SessionID] {
		if existing.ID == item.ID {
			return false, nil
		}
	}
	s.items[item.SessionID] = append(s.items[item.SessionID], item)
	return true, nil
}

// RemoveItem unpins an item.
func (s *SessionStore) RemoveItem(_ context.Context, sessionID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrNotFound
	}
	items := s.items[sessionID]
	kept := make([]domain.ContextItem, 0, len(items))
	for _, item := range items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.items[sessionID] = kept
	return nil
}

// ClearItems removes every item of a session.
func (s *SessionStore) ClearItems(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, sessionID)
	return nil
}

// Items returns the items of a session in pin order.
func (s *SessionStore) Items(_ context.Context, sessionID string) ([]domain.ContextItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrNotFound
	}
	items := s.items[sessionID]
	result := make([]domain.ContextItem, len(items))
	copy(result, items)
	return result, nil
}

// RemoveItemsForDocument detaches items referencing a document from every session.
func (s *SessionStore) RemoveItemsForDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sessionID, items := range s.items {
		kept := make([]domain.ContextItem, 0, len(items))
		for _, item := range items {
			if item.Context.DocumentID == documentID {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		s.items[sessionID] = kept
	}
	return removed, nil
}
