package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// AtomicLogger holds the process logger and allows swapping it on config
// reload. It implements logger.Logger, so components built once at startup
// follow level and format changes.
type AtomicLogger struct {
	ptr atomic.Pointer[slog.Logger]
}

// NewAtomicLogger creates an AtomicLogger holding l.
func NewAtomicLogger(l *slog.Logger) *AtomicLogger {
	a := &AtomicLogger{}
	a.ptr.Store(l)
	return a
}

// Get returns the current logger.
func (a *AtomicLogger) Get() *slog.Logger {
	return a.ptr.Load()
}

// Set replaces the current logger.
func (a *AtomicLogger) Set(l *slog.Logger) {
	a.ptr.Store(l)
}

func (a *AtomicLogger) Debug(msg string, args ...any) { a.Get().Debug(msg, args...) }
func (a *AtomicLogger) Info(msg string, args ...any)  { a.Get().Info(msg, args...) }
func (a *AtomicLogger) Warn(msg string, args ...any)  { a.Get().Warn(msg, args...) }
func (a *AtomicLogger) Error(msg string, args ...any) { a.Get().Error(msg, args...) }

// NewLogger builds a slog logger for the given level and format.
// Unknown levels fall back to info; format "text" selects the text handler,
// anything else JSON.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", "modmail")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (app *Application) setupLogger() error {
	app.logger = NewAtomicLogger(NewLogger(app.logOutput, app.config.Logging.Level, app.config.Logging.Format))
	slog.SetDefault(app.logger.Get())
	return nil
}
