package testutil

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger creates a debug-level text logger on stderr.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// NewNullLogger creates a logger that discards all output.
func NewNullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// NewCaptureLogger writes debug-level JSON records to w so tests can assert
// on the emitted events.
func NewCaptureLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
