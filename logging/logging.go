// Package logging configures the application's structured logger. The TUI
// owns the terminal, so log output always goes to a file.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Common attribute keys so log lines stay grep-able across packages.
const (
	KeyOperation = "operation"
	KeyError     = "error"
	KeyMessageID = "message_id"
	KeyQuery     = "query"
)

// Setup opens (or creates) the log file, installs a JSON slog handler as the
// process default, and returns the logger plus a close func for the file.
func Setup(path string) (*slog.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	logger := slog.New(slog.NewJSONHandler(f, nil))
	slog.SetDefault(logger)
	return logger, f.Close, nil
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// MessageID returns a slog attribute for a Gmail message id.
func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, id)
}

// Err returns a slog attribute for an error. A nil error yields an empty
// group that slog omits, so Err(maybeNil) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}
