package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRun     = "distribute.run"
	SpanClient  = "distribute.client"
	SpanExtract = "patterns.extract"
	SpanPublish = "store.publish"
)

// Attribute keys, all under the "gfimx." namespace.
const (
	AttrRunID          = "gfimx.run_id"
	AttrClientCount    = "gfimx.clients"
	AttrClient         = "gfimx.client"
	AttrPolicyPath     = "gfimx.policy.path"
	AttrPolicyChecksum = "gfimx.policy.checksum"
	AttrPatternCount   = "gfimx.patterns.count"
	AttrErrorType      = "gfimx.error.type"
	AttrStoreBackend   = "gfimx.store.backend"
	AttrStoreKey       = "gfimx.store.key"
	AttrStatus         = "gfimx.status"
	AttrCommit         = "gfimx.policy.commit"
)

// SetRunAttributes sets run-level attributes on a span.
func SetRunAttributes(span trace.Span, runID string, clients int, commit string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrClientCount, clients),
	}
	if commit != "" {
		attrs = append(attrs, attribute.String(AttrCommit, commit))
	}
	span.SetAttributes(attrs...)
}

// SetClientAttributes sets the client and its policy file on a span.
func SetClientAttributes(span trace.Span, client, policyPath string) {
	span.SetAttributes(
		attribute.String(AttrClient, client),
		attribute.String(AttrPolicyPath, policyPath),
	)
}

// SetPolicyAttributes records what was extracted from an accepted policy.
func SetPolicyAttributes(span trace.Span, checksum string, patterns int) {
	span.SetAttributes(
		attribute.String(AttrPolicyChecksum, checksum),
		attribute.Int(AttrPatternCount, patterns),
	)
}

// SetStoreAttributes sets the store backend and key on a span.
func SetStoreAttributes(span trace.Span, backend, key string) {
	span.SetAttributes(
		attribute.String(AttrStoreBackend, backend),
		attribute.String(AttrStoreKey, key),
	)
}

// SetErrorType records the classification of a failure, e.g.
// "invalid_pattern", alongside SetError.
func SetErrorType(span trace.Span, errorType string) {
	span.SetAttributes(attribute.String(AttrErrorType, errorType))
}
