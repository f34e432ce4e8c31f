package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/views/progress"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// App processes a batch of documents and renders live progress.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports

	// ctx bounds the processing run; cancel aborts it.
	ctx    context.Context
	cancel context.CancelFunc

	styles       *styles.Styles
	keymap       *keymap.KeyMap
	progressView *progress.View
	statusBar    *status.Bar

	documentIDs []string
	changes     <-chan domain.StatusChange

	started  bool
	finished bool

	// err holds the batch result once processing returns.
	err error
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a progress app that processes the given documents.
func NewApp(ports *Ports, documentIDs []string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		ports:        ports,
		ctx:          ctx,
		cancel:       cancel,
		styles:       s,
		keymap:       km,
		progressView: progress.NewView(s),
		statusBar:    status.NewBar(s, km),
		documentIDs:  documentIDs,
	}, nil
}

// WithContext derives the run context from ctx.
func (a *App) WithContext(ctx context.Context) *App {
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Init implements tea.Model.
// It subscribes to status changes before anything runs so no transition is
// missed, then loads the tracked documents.
func (a *App) Init() tea.Cmd {
	changes, err := a.ports.Processor.Subscribe(a.ctx)
	if err != nil {
		logger.Warn("Live progress unavailable: %v", err)
	} else {
		a.changes = changes
	}
	return tea.Batch(
		a.progressView.Init(),
		a.load(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.progressView.SetDimensions(msg.Width, msg.Height)
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.DocumentsLoaded:
		a.progressView, _ = a.progressView.Update(msg)
		a.statusBar.SetSummary(a.progressView.Summary())
		if msg.Err != nil {
			a.err = msg.Err
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(msg.Err.Error())
			return a, tea.Quit
		}
		if a.finished {
			return a, tea.Quit
		}
		if !a.started {
			a.started = true
			return a, tea.Batch(a.listen(), a.run())
		}
		return a, nil

	case messages.StatusChanged:
		a.progressView, _ = a.progressView.Update(msg)
		a.statusBar.SetSummary(a.progressView.Summary())
		return a, a.listen()

	case messages.SubscriptionClosed:
		a.changes = nil
		return a, nil

	case messages.ProcessingFinished:
		a.finished = true
		a.err = msg.Err
		a.statusBar.SetState(status.StateDone)
		// Reload so the final view reflects stored state even if a
		// transition was dropped by the notifier.
		return a, a.load()
	}

	var cmd tea.Cmd
	a.progressView, cmd = a.progressView.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), a.keymap.Quit):
		a.cancel()
		return a, tea.Quit
	case keymap.Matches(msg.String(), a.keymap.Cancel):
		if !a.finished {
			a.cancel()
			a.statusBar.SetState(status.StateCancelling)
		}
		return a, nil
	case keymap.Matches(msg.String(), a.keymap.Details):
		a.progressView.ToggleDetails()
		return a, nil
	}
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		a.progressView.View(),
		a.statusBar.View(),
	)
}

// load fetches the tracked documents. Documents removed since the batch was
// chosen are skipped.
func (a *App) load() tea.Cmd {
	ids := a.documentIDs
	library := a.ports.Library
	ctx := context.WithoutCancel(a.ctx)
	return func() tea.Msg {
		docs := make([]domain.Document, 0, len(ids))
		for _, id := range ids {
			doc, err := library.Get(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return messages.DocumentsLoaded{Err: err}
			}
			docs = append(docs, *doc)
		}
		return messages.DocumentsLoaded{Documents: docs}
	}
}

// listen waits for the next status change.
func (a *App) listen() tea.Cmd {
	changes := a.changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return messages.SubscriptionClosed{}
		}
		return messages.StatusChanged{Change: change}
	}
}

// run processes the batch.
func (a *App) run() tea.Cmd {
	ctx := a.ctx
	ids := a.documentIDs
	processor := a.ports.Processor
	return func() tea.Msg {
		return messages.ProcessingFinished{Err: processor.ProcessAll(ctx, ids)}
	}
}

// Summary returns the counts of the tracked documents.
func (a *App) Summary() domain.ProcessingSummary {
	return a.progressView.Summary()
}

// Err returns the batch error, if any, once the program has exited.
func (a *App) Err() error {
	return a.err
}

// Close cancels any outstanding processing.
func (a *App) Close() {
	a.cancel()
}

// Run starts the program and blocks until processing finishes or the user
// quits.
func Run(ctx context.Context, ports *Ports, documentIDs []string, opts ...tea.ProgramOption) (*App, error) {
	app, err := NewApp(ports, documentIDs)
	if err != nil {
		return nil, err
	}
	app.WithContext(ctx)
	defer app.Close()

	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		return app, fmt.Errorf("running progress view: %w", err)
	}
	return app, nil
}
