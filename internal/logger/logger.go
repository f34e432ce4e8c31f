// Package logger provides verbose logging for the pdfchat CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to show what the ingestion and retrieval
// pipelines are doing. Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	zl                = newZerolog(os.Stderr)
)

// newZerolog builds a console logger that prints "[LEVEL] message key=value".
func newZerolog(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
		FormatLevel: func(i any) string {
			return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
		},
	}
	return zerolog.New(cw).Level(zerolog.DebugLevel)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	zl = newZerolog(w)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit(zerolog.DebugLevel, nil, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit(zerolog.InfoLevel, nil, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	emit(zerolog.WarnLevel, nil, format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	emit(zerolog.ErrorLevel, nil, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Entry is a logger carrying structured fields.
type Entry struct {
	fields map[string]any
}

// With returns an Entry with a single field attached.
func With(key string, value any) Entry {
	return Entry{fields: map[string]any{key: value}}
}

// With returns a copy of the entry with an extra field.
func (e Entry) With(key string, value any) Entry {
	fields := make(map[string]any, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	fields[key] = value
	return Entry{fields: fields}
}

// Debug prints a message with the entry's fields if verbose mode is enabled.
func (e Entry) Debug(format string, args ...any) {
	emit(zerolog.DebugLevel, e.fields, format, args...)
}

// Info prints a message with the entry's fields if verbose mode is enabled.
func (e Entry) Info(format string, args ...any) {
	emit(zerolog.InfoLevel, e.fields, format, args...)
}

// Warn prints a message with the entry's fields if verbose mode is enabled.
func (e Entry) Warn(format string, args ...any) {
	emit(zerolog.WarnLevel, e.fields, format, args...)
}

// Error prints a message with the entry's fields regardless of verbose mode.
func (e Entry) Error(format string, args ...any) {
	emit(zerolog.ErrorLevel, e.fields, format, args...)
}

func emit(level zerolog.Level, fields map[string]any, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && level < zerolog.ErrorLevel {
		return
	}
	ev := zl.WithLevel(level)
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msgf(format, args...)
}
