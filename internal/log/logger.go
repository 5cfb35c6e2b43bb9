package log

import (
	"cmp"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger and remembers the component it was scoped to.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Format    string // "text" or "json"
	Output    io.Writer
	Component string
	Handler   slog.Handler
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values read as info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// NewHandler builds a text or JSON handler writing to out.
func NewHandler(format string, out io.Writer, level slog.Level) slog.Handler {
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// New builds a logger for config. A nil Output writes to stdout and an empty
// Component becomes ComponentApp.
func New(config Config) *Logger {
	h := config.Handler
	if h == nil {
		h = NewHandler(config.Format, config.Output, config.Level)
	}
	return scoped(slog.New(h), cmp.Or(config.Component, ComponentApp))
}

func scoped(base *slog.Logger, component string) *Logger {
	return &Logger{Logger: base.With(FieldComponent, component), component: component}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// WithComponent rescopes l. Records keep the earlier component attribute
// too, listed before the new one.
func (l *Logger) WithComponent(component string) *Logger {
	return scoped(l.Logger, component)
}

func (l *Logger) Component() string {
	return l.component
}

// WithComponent scopes the process-wide default logger.
func WithComponent(component string) *Logger {
	return scoped(slog.Default(), component)
}

func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
