// Package progress provides the document processing progress view.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

const maxTitleWidth = 48

// row is one tracked document.
type row struct {
	id     string
	title  string
	status domain.ProcessingStatus
	chunks int
	err    string
}

// View lists tracked documents with their processing status and an overall
// progress bar.
type View struct {
	styles  *styles.Styles
	spinner spinner.Model
	bar     progress.Model

	rows        []row
	index       map[string]int
	showDetails bool
	err         error
	width       int
	height      int
}

// NewView creates a new progress view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Active))
	theme := s.Theme()
	bar := progress.New(
		progress.WithGradient(string(theme.Primary), string(theme.Secondary)),
		progress.WithoutPercentage(),
	)

	return &View{
		styles:  s,
		spinner: sp,
		bar:     bar,
		index:   make(map[string]int),
		width:   80,
	}
}

// Init starts the spinner.
func (v *View) Init() tea.Cmd {
	return v.spinner.Tick
}

// SetDocuments replaces the tracked documents, keeping their order.
func (v *View) SetDocuments(docs []domain.Document) {
	v.rows = make([]row, 0, len(docs))
	v.index = make(map[string]int, len(docs))
	for i := range docs {
		v.index[docs[i].ID] = len(v.rows)
		v.rows = append(v.rows, row{
			id:     docs[i].ID,
			title:  docs[i].Title,
			status: docs[i].Status,
			chunks: docs[i].TotalChunks,
			err:    docs[i].LastError,
		})
	}
}

// Apply records a status transition. Changes for untracked documents are
// ignored so a shared notifier can carry unrelated runs.
func (v *View) Apply(change domain.StatusChange) bool {
	i, ok := v.index[change.DocumentID]
	if !ok {
		return false
	}
	r := &v.rows[i]
	r.status = change.To
	switch change.To {
	case domain.StatusCompleted:
		r.chunks = change.Chunks
		r.err = ""
	case domain.StatusFailed:
		r.chunks = 0
		r.err = change.Error
	}
	return true
}

// Summary counts tracked documents by status.
func (v *View) Summary() domain.ProcessingSummary {
	var s domain.ProcessingSummary
	for _, r := range v.rows {
		s.Add(r.status)
	}
	return s
}

// Fraction is the share of tracked documents that reached a terminal status.
func (v *View) Fraction() float64 {
	if len(v.rows) == 0 {
		return 1
	}
	s := v.Summary()
	return float64(s.Completed+s.Failed) / float64(s.Total)
}

// ToggleDetails shows or hides per-document errors.
func (v *View) ToggleDetails() {
	v.showDetails = !v.showDetails
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.bar.Width = min(max(width-4, 10), 80)
}

// Update handles messages for the progress view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.DocumentsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.SetDocuments(msg.Documents)
		return v, nil

	case messages.StatusChanged:
		v.Apply(msg.Change)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// View renders the progress view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Processing documents"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
		b.WriteString("\n\n")
	}

	if len(v.rows) == 0 {
		b.WriteString(v.styles.Muted.Render("Nothing to process."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(v.bar.ViewAs(v.Fraction()))
	b.WriteString("\n\n")

	for _, r := range v.rows {
		b.WriteString(v.renderRow(r))
		b.WriteString("\n")
		if v.showDetails && r.err != "" {
			b.WriteString(v.styles.Muted.Render("    " + r.err))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (v *View) renderRow(r row) string {
	marker := " "
	switch r.status {
	case domain.StatusProcessing:
		marker = v.spinner.View()
	case domain.StatusCompleted:
		marker = v.styles.Success.Render("✓")
	case domain.StatusFailed:
		marker = v.styles.Error.Render("✗")
	}

	title := r.title
	if title == "" {
		title = r.id
	}
	title = truncate(title, maxTitleWidth)

	detail := r.status.Description()
	if r.status == domain.StatusCompleted {
		detail = fmt.Sprintf("%s, %d chunks", detail, r.chunks)
	}

	return fmt.Sprintf("%s %-*s  %s", marker, maxTitleWidth, title,
		v.styles.ForStatus(r.status).Render(detail))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
