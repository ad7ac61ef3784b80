package logger

import "context"

type contextKey string

const (
	loggerKey   contextKey = "tsxlock.logger"
	runIDKey    contextKey = "tsxlock.run_id"
	workloadKey contextKey = "tsxlock.workload"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRunID tags the context with a benchmark run ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the run ID from context.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithWorkload tags the context with the workload being measured.
func WithWorkload(ctx context.Context, workload string) context.Context {
	return context.WithValue(ctx, workloadKey, workload)
}

// WorkloadFromContext extracts the workload name from context.
func WorkloadFromContext(ctx context.Context) string {
	if w, ok := ctx.Value(workloadKey).(string); ok {
		return w
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the run ID and workload from the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := RunIDFromContext(ctx); id != "" {
		l = l.With("run_id", id)
	}
	if w := WorkloadFromContext(ctx); w != "" {
		l = l.With("workload", w)
	}
	return l
}
