// Package tui provides the interactive processing view for pdfchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Library loads the documents being tracked.
	Library driving.LibraryService

	// Processor runs the batch and publishes status changes.
	Processor driving.DocumentProcessor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Library == nil {
		return ErrMissingLibrary
	}
	if p.Processor == nil {
		return ErrMissingProcessor
	}
	return nil
}
