package mcp

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// mockSearch is a mock implementation of driving.SimilaritySearch.
type mockSearch struct {
	hits      []domain.ScoredChunk
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockSearch) Search(_ context.Context, _ []float32, limit int) ([]domain.ScoredChunk, error) {
	m.lastLimit = limit
	return m.hits, m.err
}

func (m *mockSearch) SearchText(_ context.Context, text string, limit int) ([]domain.ScoredChunk, error) {
	m.lastQuery = text
	m.lastLimit = limit
	return m.hits, m.err
}

// mockAssembler is a mock implementation of driving.ContextAssembler.
type mockAssembler struct {
	result    *domain.BuildResult
	err       error
	attachErr error
	lastReq   domain.BuildRequest
}

func (m *mockAssembler) Build(_ context.Context, req domain.BuildRequest) (*domain.BuildResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.BuildResult{}, nil
	}
	return m.result, nil
}

func (m *mockAssembler) SelectionContext(
	_ context.Context, documentID, text string, loc *domain.SelectionLocation,
) (domain.ExplicitContext, error) {
	if m.attachErr != nil {
		return domain.ExplicitContext{}, m.attachErr
	}
	return domain.ExplicitContext{
		ID: "selection:" + documentID, Shape: domain.ExplicitSelection,
		DocumentID: documentID, Content: text, Location: loc,
	}, nil
}

func (m *mockAssembler) PageRangeContext(
	_ context.Context, documentID string, from, to int,
) (domain.ExplicitContext, error) {
	if m.attachErr != nil {
		return domain.ExplicitContext{}, m.attachErr
	}
	return domain.ExplicitContext{
		ID: "pages:" + documentID, Shape: domain.ExplicitPageRange,
		DocumentID: documentID, Range: &domain.PageRange{From: from, To: to},
	}, nil
}

func (m *mockAssembler) DocumentContext(_ context.Context, documentID string) (domain.ExplicitContext, error) {
	if m.attachErr != nil {
		return domain.ExplicitContext{}, m.attachErr
	}
	return domain.ExplicitContext{
		ID: "document:" + documentID, Shape: domain.ExplicitDocument, DocumentID: documentID,
	}, nil
}

// mockSessions is a mock implementation of driving.SessionBinder.
type mockSessions struct {
	summary domain.ProcessingSummary
	err     error
}

func (m *mockSessions) CreateSession(_ context.Context, title string) (*domain.ChatSession, error) {
	return &domain.ChatSession{ID: "s1", Title: title}, m.err
}

func (m *mockSessions) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	return &domain.ChatSession{ID: id}, m.err
}

func (m *mockSessions) ListSessions(_ context.Context) ([]domain.ChatSession, error) {
	return nil, m.err
}

func (m *mockSessions) AddItem(_ context.Context, _ string, _ domain.ExplicitContext) (bool, error) {
	return true, m.err
}

func (m *mockSessions) RemoveItem(_ context.Context, _, _ string) error { return m.err }

func (m *mockSessions) ClearAll(_ context.Context, _ string) error { return m.err }

func (m *mockSessions) Items(_ context.Context, _ string) ([]domain.ContextItem, error) {
	return nil, m.err
}

func (m *mockSessions) ProcessingSummary(_ context.Context) (domain.ProcessingSummary, error) {
	return m.summary, m.err
}

// mockLibrary is a mock implementation of driving.LibraryService.
type mockLibrary struct {
	docs []domain.Document
	err  error
	gets int
}

func (m *mockLibrary) Import(_ context.Context, _ string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockLibrary) ImportDirectory(_ context.Context, _ string) ([]domain.Document, error) {
	return nil, m.err
}

func (m *mockLibrary) Get(_ context.Context, id string) (*domain.Document, error) {
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			d := m.docs[i]
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) FindByPath(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockLibrary) Remove(_ context.Context, _ string) error { return m.err }
