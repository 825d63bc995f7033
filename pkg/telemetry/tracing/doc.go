// Package tracing wires OpenTelemetry tracing for distribution runs.
//
// Each run is one "distribute.run" span with a "distribute.client" child per
// client; extraction and store writes get their own children. Spans are
// exported over OTLP gRPC when telemetry.tracing.enabled is set, and a noop
// tracer is used otherwise, so call sites never check whether tracing is on.
package tracing
