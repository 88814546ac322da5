// Package logging holds the process-wide logger.
package logging

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const prefix = "mcify"

var (
	once      sync.Once
	singleton *log.Logger
)

// Default returns the shared logger, writing to stderr at info level.
func Default() *log.Logger {
	once.Do(func() {
		singleton = New(os.Stderr, log.InfoLevel)
	})
	return singleton
}

// New returns a timestamped logger at level.
func New(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	l.SetLevel(level)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return New(io.Discard, log.FatalLevel)
}

// ParseLevel accepts debug, info, warn, error and fatal.
func ParseLevel(s string) (log.Level, error) {
	return log.ParseLevel(s)
}

// SetLevel changes the level of the shared logger.
func SetLevel(level log.Level) {
	Default().SetLevel(level)
}

// Or returns l, or the shared logger when l is nil.
func Or(l *log.Logger) *log.Logger {
	if l == nil {
		return Default()
	}
	return l
}

// WithContext attaches l to ctx for code that only receives a context.
func WithContext(ctx context.Context, l *log.Logger) context.Context {
	return log.WithContext(ctx, l)
}

// FromContext returns the logger attached by WithContext, or the shared
// logger.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(log.ContextKey).(*log.Logger); ok && l != nil {
		return l
	}
	return Default()
}
