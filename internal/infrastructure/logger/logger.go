package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
)

const colorReset = "\033[0m"

// levelColors maps the slog.TextHandler level token to its ANSI colour.
var levelColors = []struct {
	token []byte
	color string
}{
	{[]byte("level=DEBUG"), "\033[36m"},
	{[]byte("level=INFO"), "\033[32m"},
	{[]byte("level=WARN"), "\033[33m"},
	{[]byte("level=ERROR"), "\033[31m"},
}

// colorWriter colours the level token of each text log line when writing to
// a terminal.
type colorWriter struct {
	writer io.Writer
}

func (cw colorWriter) Write(p []byte) (int, error) {
	line := p
	for _, lc := range levelColors {
		if bytes.Contains(line, lc.token) {
			line = bytes.Replace(line, lc.token, []byte(lc.color+string(lc.token)+colorReset), 1)
			break
		}
	}
	if _, err := cw.writer.Write(line); err != nil {
		return 0, err
	}
	return len(p), nil
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// New builds a structured slog logger writing to stdout, honoring the
// configured level and environment.
func New(appName, level, environment string) *slog.Logger {
	return NewWithWriter(os.Stdout, appName, level, environment)
}

// NewWithWriter is New with an explicit destination. The CLI logs to stderr
// so reports can be streamed on stdout.
// For development environments (local, dev, development) it uses text
// output, coloured on terminals; elsewhere it uses JSON.
func NewWithWriter(w io.Writer, appName, level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development":
		if isTerminal(w) {
			w = colorWriter{writer: w}
		}
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("app", appName)
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
