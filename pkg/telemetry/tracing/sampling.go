package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createSampler maps a sample ratio to a sampler. A ratio of 1 or more
// samples every run, 0 or less samples none, and anything between samples
// by trace ID.
//
// The sampler is wrapped in ParentBased so a distribution triggered from a
// traced context keeps its parent's decision.
func createSampler(ratio float64) sdktrace.Sampler {
	var base sdktrace.Sampler

	switch {
	case ratio >= 1:
		base = sdktrace.AlwaysSample()
	case ratio <= 0:
		base = sdktrace.NeverSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}

	return sdktrace.ParentBased(base)
}
