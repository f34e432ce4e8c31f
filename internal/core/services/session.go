package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionBinder = (*SessionService)(nil)

// DefaultSessionTitle names sessions created without a title.
const DefaultSessionTitle = "New chat"

// SessionService binds explicit contexts to chat sessions.
type SessionService struct {
	sessionStore driven.SessionStore
	docStore     driven.DocumentStore
	now          func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(sessionStore driven.SessionStore, docStore driven.DocumentStore) *SessionService {
	return &SessionService{
		sessionStore: sessionStore,
		docStore:     docStore,
		now:          time.Now,
	}
}

// CreateSession implements driving.SessionBinder.
func (s *SessionService) CreateSession(ctx context.Context, title string) (*domain.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultSessionTitle
	}
	now := s.now()
	session := &domain.ChatSession{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionStore.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// GetSession implements driving.SessionBinder.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	return s.sessionStore.GetSession(ctx, sessionID)
}

// ListSessions implements driving.SessionBinder.
func (s *SessionService) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	return s.sessionStore.ListSessions(ctx)
}

// AddItem implements driving.SessionBinder. Items must reference a
// document that exists, so a session never holds dangling references.
func (s *SessionService) AddItem(ctx context.Context, sessionID string, ec domain.ExplicitContext) (bool, error) {
	if ec.ID == "" {
		return false, fmt.Errorf("%w: context ID is required", domain.ErrInvalidInput)
	}
	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if ec.DocumentID != "" {
		if _, err := s.docStore.GetDocument(ctx, ec.DocumentID); err != nil {
			return false, fmt.Errorf("document %s: %w", ec.DocumentID, err)
		}
	}

	added, err := s.sessionStore.AddItem(ctx, domain.ContextItem{
		ID:        ec.ID,
		SessionID: sessionID,
		Context:   ec,
		PinnedAt:  s.now(),
	})
	if err != nil || !added {
		return added, err
	}
	return true, s.touch(ctx, session)
}

// RemoveItem implements driving.SessionBinder.
func (s *SessionService) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessionStore.RemoveItem(ctx, sessionID, itemID); err != nil {
		return err
	}
	return s.touch(ctx, session)
}

// ClearAll implements driving.SessionBinder.
func (s *SessionService) ClearAll(ctx context.Context, sessionID string) error {
	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessionStore.ClearItems(ctx, sessionID); err != nil {
		return err
	}
	return s.touch(ctx, session)
}

// Items implements driving.SessionBinder.
func (s *SessionService) Items(ctx context.Context, sessionID string) ([]domain.ContextItem, error) {
	return s.sessionStore.Items(ctx, sessionID)
}

// ProcessingSummary implements driving.SessionBinder.
func (s *SessionService) ProcessingSummary(ctx context.Context) (domain.ProcessingSummary, error) {
	var summary domain.ProcessingSummary
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return summary, fmt.Errorf("list documents: %w", err)
	}
	for _, d := range docs {
		summary.Add(d.Status)
	}
	return summary, nil
}

func (s *SessionService) touch(ctx context.Context, session *domain.ChatSession) error {
	session.UpdatedAt = s.now()
	return s.sessionStore.SaveSession(ctx, session)
}
