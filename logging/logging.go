// Package logging builds the structured logger shared by the ledger, the
// source adapters and the CLI, and carries it through context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Format selects how log entries are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New returns a logger writing to w at the given level ("trace", "debug",
// "info", "warn", "error"). Text output is colored only when w is a terminal.
func New(level string, format Format, w io.Writer) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)

	switch format {
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case FormatText, "":
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors:    !isTerminal(w),
			DisableTimestamp: true,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q, expected text or json", format)
	}

	return log, nil
}

// NewSilent returns a logger that discards everything.
func NewSilent() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(level string) (logrus.Level, error) {
	if strings.TrimSpace(level) == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type contextKey struct{}

// WithLogger returns a context carrying the logger.
func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger stored in ctx, or a silent logger.
func FromContext(ctx context.Context) logrus.FieldLogger {
	if log, ok := ctx.Value(contextKey{}).(logrus.FieldLogger); ok {
		return log
	}
	return NewSilent()
}
