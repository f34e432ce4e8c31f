package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// mockLibrary implements driving.LibraryService for testing.
type mockLibrary struct {
	docs   map[string]domain.Document
	getErr error
}

func (m *mockLibrary) Import(_ context.Context, _ string) (*domain.Document, error) {
	return nil, nil
}

func (m *mockLibrary) ImportDirectory(_ context.Context, _ string) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockLibrary) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockLibrary) FindByPath(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) List(_ context.Context) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockLibrary) Remove(_ context.Context, _ string) error { return nil }

// mockProcessor implements driving.DocumentProcessor for testing.
type mockProcessor struct {
	mu           sync.Mutex
	changes      chan domain.StatusChange
	subscribeErr error
	processErr   error
	processed    []string
	ctx          context.Context
}

func (m *mockProcessor) Process(_ context.Context, _ string) error { return nil }

func (m *mockProcessor) ProcessAll(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, ids...)
	m.ctx = ctx
	return m.processErr
}

func (m *mockProcessor) ProcessPending(_ context.Context) error { return nil }

func (m *mockProcessor) Cancel(_ string) bool { return false }

func (m *mockProcessor) Subscribe(_ context.Context) (<-chan domain.StatusChange, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	return m.changes, nil
}

func newTestApp(t *testing.T, processor *mockProcessor, ids ...string) (*App, *mockLibrary) {
	t.Helper()
	library := &mockLibrary{docs: map[string]domain.Document{
		"a": {ID: "a", Title: "Annual Report", Status: domain.StatusPending},
		"b": {ID: "b", Title: "Board Minutes", Status: domain.StatusFailed},
	}}
	app, err := NewApp(&Ports{Library: library, Processor: processor}, ids)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app, library
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingLibrary)
	assert.ErrorIs(t, (&Ports{Library: &mockLibrary{}}).Validate(), ErrMissingProcessor)
	assert.NoError(t, (&Ports{Library: &mockLibrary{}, Processor: &mockProcessor{}}).Validate())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{}, nil)
	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingLibrary)
}

func TestApp_LoadSkipsRemovedDocuments(t *testing.T) {
	app, _ := newTestApp(t, &mockProcessor{}, "a", "gone", "b")

	msg := app.load()()
	loaded, ok := msg.(messages.DocumentsLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	require.Len(t, loaded.Documents, 2)
	assert.Equal(t, "a", loaded.Documents[0].ID)
	assert.Equal(t, "b", loaded.Documents[1].ID)
}

func TestApp_LoadError(t *testing.T) {
	app, library := newTestApp(t, &mockProcessor{}, "a")
	library.getErr = errors.New("store closed")

	_, cmd := app.Update(app.load()())
	assert.NotNil(t, cmd)
	assert.EqualError(t, app.Err(), "store closed")
	assert.Equal(t, status.StateError, app.statusBar.State())
}

func TestApp_Flow(t *testing.T) {
	processor := &mockProcessor{changes: make(chan domain.StatusChange, 4)}
	app, library := newTestApp(t, processor, "a", "b")
	app.Init()

	_, cmd := app.Update(app.load()())
	require.NotNil(t, cmd)
	assert.True(t, app.started)
	assert.Equal(t, 2, app.Summary().Total)

	processor.changes <- domain.StatusChange{DocumentID: "a", From: domain.StatusPending, To: domain.StatusProcessing}
	msg := app.listen()()
	_, cmd = app.Update(msg)
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, app.Summary().Processing)

	finished := app.run()()
	assert.Equal(t, []string{"a", "b"}, processor.processed)

	library.docs["a"] = domain.Document{ID: "a", Title: "Annual Report", Status: domain.StatusCompleted, TotalChunks: 5}
	library.docs["b"] = domain.Document{ID: "b", Title: "Board Minutes", Status: domain.StatusCompleted, TotalChunks: 2}
	_, cmd = app.Update(finished)
	require.NotNil(t, cmd)
	assert.Equal(t, status.StateDone, app.statusBar.State())

	_, cmd = app.Update(cmd())
	assert.NotNil(t, cmd)
	assert.Equal(t, 2, app.Summary().Completed)
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "Done")
}

func TestApp_ProcessingError(t *testing.T) {
	processor := &mockProcessor{processErr: domain.ErrIngestionFailure}
	app, _ := newTestApp(t, processor, "a")

	_, _ = app.Update(app.run()())
	assert.ErrorIs(t, app.Err(), domain.ErrIngestionFailure)
}

func TestApp_SubscribeFailureStillRuns(t *testing.T) {
	processor := &mockProcessor{subscribeErr: errors.New("no notifier")}
	app, _ := newTestApp(t, processor, "a")
	app.Init()

	assert.Nil(t, app.listen())
	_, cmd := app.Update(app.load()())
	assert.NotNil(t, cmd)
}

func TestApp_SubscriptionClosed(t *testing.T) {
	processor := &mockProcessor{changes: make(chan domain.StatusChange)}
	app, _ := newTestApp(t, processor, "a")
	app.Init()
	close(processor.changes)

	_, cmd := app.Update(app.listen()())
	assert.Nil(t, cmd)
	assert.Nil(t, app.listen())
}

func TestApp_Keys(t *testing.T) {
	t.Run("cancel stops the run", func(t *testing.T) {
		processor := &mockProcessor{}
		app, _ := newTestApp(t, processor, "a")

		_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.Nil(t, cmd)
		assert.Equal(t, status.StateCancelling, app.statusBar.State())

		app.run()()
		assert.ErrorIs(t, processor.ctx.Err(), context.Canceled)
	})

	t.Run("quit cancels and exits", func(t *testing.T) {
		app, _ := newTestApp(t, &mockProcessor{}, "a")

		_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Error(t, app.ctx.Err())
	})

	t.Run("details toggles", func(t *testing.T) {
		app, _ := newTestApp(t, &mockProcessor{}, "b")
		app.Update(app.load()())
		app.Update(messages.StatusChanged{Change: domain.StatusChange{DocumentID: "b", To: domain.StatusFailed, Error: "bad xref"}})
		assert.NotContains(t, app.View(), "bad xref")

		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
		assert.Contains(t, app.View(), "bad xref")
	})
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := newTestApp(t, &mockProcessor{}, "a")

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)
	assert.Equal(t, 120, app.statusBar.Width())
}
