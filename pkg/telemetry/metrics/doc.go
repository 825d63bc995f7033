// Package metrics exports Prometheus metrics for policy distribution.
//
// A Collector registers three groups of metrics on a private registry:
//
//   - distribution: runs by outcome, clients by status, durations, and the
//     time of the last run and of each client's last publish
//   - patterns: patterns extracted and pattern failures by error type
//   - store: store operations by backend, operation and result
//
// Serve mode mounts Collector.Handler at the configured metrics path.
package metrics
