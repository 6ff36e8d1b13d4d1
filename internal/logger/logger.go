// Package logger provides structured logging setup for Atelier.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/atelierhq/atelier/internal/config"
)

// New creates a *slog.Logger from the given Logging config along with a
// Closer that flushes async output. Output is JSON to stdout with a
// "service" attribute on every record, plus request_id and tenant_id when
// the context carries them.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	level := parseLevel(cfg.Level)

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	closer := Closer(nopCloser{})
	if cfg.Async {
		ah := NewAsyncHandler(handler, 4096, 1)
		handler = ah
		closer = ah
	}

	// Context enrichment sits outermost: the async handler does not carry
	// the request context across the channel.
	handler = NewContextHandler(handler)

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
