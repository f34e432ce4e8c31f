package tui

import "errors"

// ErrMissingLibrary is returned when the library service is not provided.
var ErrMissingLibrary = errors.New("tui: library service is required")

// ErrMissingProcessor is returned when the document processor is not provided.
var ErrMissingProcessor = errors.New("tui: document processor is required")
