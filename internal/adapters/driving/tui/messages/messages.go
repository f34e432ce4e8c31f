// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// DocumentsLoaded carries the documents the progress view tracks.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// StatusChanged is sent for every processing transition published by the
// processor.
type StatusChanged struct {
	Change domain.StatusChange
}

// SubscriptionClosed is sent when the status channel is closed.
type SubscriptionClosed struct{}

// ProcessingFinished is sent once the batch run returns.
type ProcessingFinished struct {
	Err error
}

// ErrorOccurred is sent when an error needs to be displayed.
type ErrorOccurred struct {
	Err error
}
