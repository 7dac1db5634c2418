// Package logging constructs slog loggers and keeps attribute names
// consistent across the codebase.
package logging

import (
	"io"
	"log/slog"
)

// Common log attribute keys.
const (
	KeyLabel     = "label"
	KeyTokens    = "tokens"
	KeyBudget    = "budget"
	KeyFile      = "file"
	KeyItem      = "item"
	KeyCount     = "count"
	KeyError     = "error"
	KeyOperation = "operation"
)

// New returns a text logger writing to w. Verbose enables debug output.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// Label returns a slog attribute for a label name.
func Label(name string) slog.Attr { return slog.String(KeyLabel, name) }

// Tokens returns a slog attribute for a token count.
func Tokens(n int) slog.Attr { return slog.Int(KeyTokens, n) }

// Budget returns a slog attribute for a token budget.
func Budget(n int) slog.Attr { return slog.Int(KeyBudget, n) }

// File returns a slog attribute for a file name.
func File(name string) slog.Attr { return slog.String(KeyFile, name) }

// Item returns a slog attribute for an item ID.
func Item(id string) slog.Attr { return slog.String(KeyItem, id) }

// Count returns a slog attribute for a count.
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that slog omits.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}
