package domain

import "fmt"

// ProcessingStatus is the ingestion state of a document.
type ProcessingStatus string

// Processing states.
const (
	// StatusPending means the document was imported but not yet processed.
	StatusPending ProcessingStatus = "pending"

	// StatusProcessing means chunking and embedding are in flight.
	StatusProcessing ProcessingStatus = "processing"

	// StatusCompleted means the document's chunks are stored and searchable.
	StatusCompleted ProcessingStatus = "completed"

	// StatusFailed means the last run failed. Retryable.
	StatusFailed ProcessingStatus = "failed"
)

// ParseProcessingStatus converts a stored string into a status.
// Unknown values are rejected rather than defaulting to pending.
func ParseProcessingStatus(s string) (ProcessingStatus, error) {
	status := ProcessingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	switch s {
	case StatusPending, StatusFailed, StatusCompleted:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// Description returns a human-readable label for status badges.
func (s ProcessingStatus) Description() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Ready"
	case StatusFailed:
		return "Failed (retryable)"
	default:
		return unknownDescription
	}
}

// ProcessingSummary counts documents per status across the library.
type ProcessingSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Add counts one document with the given status.
func (p *ProcessingSummary) Add(status ProcessingStatus) {
	p.Total++
	switch status {
	case StatusPending:
		p.Pending++
	case StatusProcessing:
		p.Processing++
	case StatusCompleted:
		p.Completed++
	case StatusFailed:
		p.Failed++
	}
}

// Done reports whether no document is waiting for or undergoing processing.
func (p ProcessingSummary) Done() bool {
	return p.Pending == 0 && p.Processing == 0
}

// StatusChange is emitted by the processor on every status transition.
type StatusChange struct {
	DocumentID string           `json:"document_id"`
	From       ProcessingStatus `json:"from"`
	To         ProcessingStatus `json:"to"`
	Error      string           `json:"error,omitempty"`
	Chunks     int              `json:"chunks"`
}
