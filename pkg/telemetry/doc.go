// Package telemetry groups the observability packages of the policy
// daemon.
//
//   - logging: slog loggers with run and client context and key redaction
//   - metrics: Prometheus collector for runs, clients, patterns and the store
//   - tracing: OpenTelemetry spans for runs and per-client distribution
//   - health: liveness and readiness endpoints for "gfimx serve"
//
// Every component works when its section is disabled: a nil metrics
// Collector records nothing and tracing.Noop returns unrecorded spans.
package telemetry
