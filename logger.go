package curago

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pipeline-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithBatch adds a batch description field to the logger.
func (l *Logger) WithBatch(description string) *Logger {
	return &Logger{
		Logger: l.Logger.With("batch", description),
	}
}

// WithVersion adds a version id field to the logger.
func (l *Logger) WithVersion(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("version", id),
	}
}

// LogFilter logs a quality filtering stage.
func (l *Logger) LogFilter(ctx context.Context, in, passed int) {
	if passed < in {
		l.InfoContext(ctx, "quality filter completed",
			"input", in,
			"passed", passed,
			"rejected", in-passed,
		)
	} else {
		l.DebugContext(ctx, "quality filter completed",
			"input", in,
			"passed", passed,
		)
	}
}

// LogDedup logs a deduplication stage.
func (l *Logger) LogDedup(ctx context.Context, in, unique, exact, near int) {
	if unique < in {
		l.InfoContext(ctx, "deduplication completed",
			"input", in,
			"unique", unique,
			"exact_duplicates", exact,
			"near_duplicates", near,
		)
	} else {
		l.DebugContext(ctx, "deduplication completed",
			"input", in,
			"unique", unique,
		)
	}
}

// LogValidation logs a validation stage.
func (l *Logger) LogValidation(ctx context.Context, passed bool, formatErrors, warnings int) {
	if !passed {
		l.WarnContext(ctx, "validation failed",
			"format_errors", formatErrors,
			"warnings", warnings,
		)
	} else {
		l.InfoContext(ctx, "validation passed",
			"warnings", warnings,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, id string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot created",
			"version", id,
			"records", records,
		)
	}
}

// LogMerge logs a merge-to-training operation.
func (l *Logger) LogMerge(ctx context.Context, id, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"version", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "merged to training data",
			"version", id,
			"path", path,
		)
	}
}

// LogArchive logs an archive upload.
func (l *Logger) LogArchive(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "archive failed",
			"version", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "version archived",
			"version", id,
		)
	}
}
