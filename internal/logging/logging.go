// Package logging configures the gateway's process-wide slog logger. Every
// core component (pipelines, aggregator, HTTP surface) receives the
// *slog.Logger built here and logs structured fields — source id, error,
// request latency — so the handler chosen in Configure is
// the single place output format and level are decided.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls the process logger. An empty Config yields INFO-level text
// output on stderr.
type Config struct {
	Level            string
	Structured       bool
	StructuredFormat string
	IncludePID       bool
	ExtraFields      map[string]string

	// Output overrides the log destination. Nil means os.Stderr; tests
	// inject a buffer here.
	Output io.Writer
}

// Configure builds the process logger from cfg, installs it as the slog
// default, and returns it.
func Configure(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Structured && strings.EqualFold(cfg.StructuredFormat, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	if attrs := staticAttrs(cfg); len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// staticAttrs collects the attributes stamped on every log line: operator
// extra fields first, then the PID when asked for.
func staticAttrs(cfg Config) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(cfg.ExtraFields)+1)
	for k, v := range cfg.ExtraFields {
		attrs = append(attrs, slog.String(k, v))
	}
	if cfg.IncludePID {
		attrs = append(attrs, slog.Int("pid", os.Getpid()))
	}
	return attrs
}

// ForSource returns a child logger tagged with an upstream source id, so one
// pipeline's lines can be filtered without every call site repeating the
// attribute.
func ForSource(logger *slog.Logger, id string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("source", id))
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
