// Package obslog provides the module's structured logging, colorized
// on a terminal. Neither channel nor selectx imports it.
package obslog

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/lmittmann/tint"
	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger wraps log/slog.Logger, tagging every record with a component
// name.
type Logger struct {
	*slog.Logger

	component string
}

// New constructs a Logger for the given component, writing colorized
// records to stderr when attached to a terminal.
func New(component string) *Logger {
	var handler slog.Handler

	if runtime.GOOS == "windows" {
		w := colorable.NewColorableStderr()
		handler = tint.NewHandler(w, nil)
	} else {
		w := os.Stderr
		handler = tint.NewHandler(w, &tint.Options{
			NoColor: !isatty.IsTerminal(w.Fd()),
		})
	}

	return &Logger{
		Logger:    slog.New(handler),
		component: component,
	}
}

func (l *Logger) withComponent(args []any) []any {
	return append([]any{slog.String("component", l.component)}, args...)
}

// Info logs an informational record tagged with the logger's
// component.
func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, l.withComponent(args)...)
}

// Warn logs a warning record tagged with the logger's component.
func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, l.withComponent(args)...)
}

// Error logs err alongside msg, tagged with the logger's component.
func (l *Logger) Error(msg string, err error, args ...any) {
	tagged := append([]any{tint.Err(err)}, args...)
	l.Logger.Error(msg, l.withComponent(tagged)...)
}

// Debug logs a debug record tagged with the logger's component.
func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, l.withComponent(args)...)
}
