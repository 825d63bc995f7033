package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for distribution run IDs.
	RunIDKey contextKey = "run_id"

	// ClientKey is the context key for the client being processed.
	ClientKey contextKey = "client"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithClient adds a client name to the context.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ClientKey, client)
}

// GetClient retrieves the client name from the context.
func GetClient(ctx context.Context) string {
	if client, ok := ctx.Value(ClientKey).(string); ok {
		return client
	}
	return ""
}

// extractContextFields extracts run, client and trace fields from the
// context.
func extractContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, slog.String("run_id", runID))
	}

	if client := GetClient(ctx); client != "" {
		fields = append(fields, slog.String("client", client))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return fields
}
