package trickle

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with pipeline-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithSession tags every record with a session id.
func (l *Logger) WithSession(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("session", id),
	}
}

// WithDataset tags every record with a dataset name.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// LogBuild logs a pipeline construction.
func (l *Logger) LogBuild(ctx context.Context, cfg Config, records, buckets int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "pipeline build failed",
			"linearization", cfg.Linearization.Kind.String(),
			"subdivision", cfg.Subdivision.Kind.String(),
			"selection", cfg.Selection.Kind.String(),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "pipeline built",
		"linearization", cfg.Linearization.Kind.String(),
		"subdivision", cfg.Subdivision.Kind.String(),
		"selection", cfg.Selection.Kind.String(),
		"records", records,
		"buckets", buckets,
		"elapsed", elapsed,
	)
}

// LogSample logs one chunk request.
func (l *Logger) LogSample(ctx context.Context, requested, returned, remaining int) {
	if returned == 0 {
		l.DebugContext(ctx, "sample exhausted", "requested", requested)
		return
	}
	l.DebugContext(ctx, "sample completed",
		"requested", requested,
		"returned", returned,
		"remaining", remaining,
	)
}

// LogSwap logs a stage replacement.
func (l *Logger) LogSwap(ctx context.Context, stage, strategy string, err error) {
	if err != nil {
		l.WarnContext(ctx, "swap rejected",
			"stage", stage,
			"strategy", strategy,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "swap completed",
		"stage", stage,
		"strategy", strategy,
	)
}
