// Package logging provides slog setup helpers for dhcpcd.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the default slog logger with the given level, format
// ("json" or "text"), and output. Unlike a DHCP server handling many
// concurrent client requests, dhcpcd is typically run in the foreground
// during bring-up and troubleshooting as well as under a supervisor, so
// format is configurable rather than fixed to JSON.
func Setup(level, format string, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a string level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForInterface returns a child logger with iface bound as a permanent
// attribute, so call sites in internal/dhcpclient and its collaborators
// don't need to pass "iface" on every log line the way a per-request
// server handler would.
func ForInterface(logger *slog.Logger, iface string) *slog.Logger {
	return logger.With("iface", iface)
}
