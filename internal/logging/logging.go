// Package logging builds the process slog.Logger and adapts it to the
// printf style authclient.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/internal/config"
)

// New creates a slog.Logger for cfg. Output defaults to stderr so CLI
// output on stdout stays clean.
func New(cfg config.LoggingConfig) *slog.Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	default:
		output = os.Stderr
	}
	return NewWithWriter(cfg, output)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(cfg config.LoggingConfig, output io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "skillsphere"),
	})
	return slog.New(handler)
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

// Adapter implements authclient.Logger on top of slog.
type Adapter struct {
	l *slog.Logger
}

var _ authclient.Logger = (*Adapter)(nil)

// NewAdapter wraps l, tagging every record with component.
func NewAdapter(l *slog.Logger, component string) *Adapter {
	if l == nil {
		l = slog.Default()
	}
	if component != "" {
		l = l.With("component", component)
	}
	return &Adapter{l: l}
}

func (a *Adapter) Debug(format string, args ...any) {
	a.l.Debug(fmt.Sprintf(format, args...))
}

func (a *Adapter) Info(format string, args ...any) {
	a.l.Info(fmt.Sprintf(format, args...))
}

func (a *Adapter) Warn(format string, args ...any) {
	a.l.Warn(fmt.Sprintf(format, args...))
}

func (a *Adapter) Error(format string, args ...any) {
	a.l.Error(fmt.Sprintf(format, args...))
}

// Slog returns the wrapped logger
func (a *Adapter) Slog() *slog.Logger {
	return a.l
}
