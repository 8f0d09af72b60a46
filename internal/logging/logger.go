package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the process-wide structured logger.
var Logger = slog.Default()

// InitLogger configures the global logger. level is one of debug, info, warn,
// error (default info); format is json or text (default text).
func InitLogger(level, format string) {
	Logger = New(os.Stdout, level, format)
	slog.SetDefault(Logger)
}

// New builds a logger writing to w without touching the global default.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func ParseLevel(level string) slog.Level {
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

// WithUser returns a logger tagged with the acting username.
func WithUser(username string) *slog.Logger {
	return Logger.With("username", username)
}

// WithEntry returns a logger tagged with a journal entry id.
func WithEntry(entryID string) *slog.Logger {
	return Logger.With("entry_id", entryID)
}

// WithError returns a logger carrying err.
func WithError(err error) *slog.Logger {
	return Logger.With("error", err)
}
