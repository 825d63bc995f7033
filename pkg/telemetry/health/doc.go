// Package health serves the probe endpoints of the policy daemon.
//
// Register mounts three endpoints on an HTTP mux:
//
//   - /healthz: liveness, 200 while the process runs
//   - /readyz: readiness, 503 when any registered check fails
//   - /version: build information
//
// Checks are plain functions registered by name:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("store", redisStore.Ping)
//	health.Register(mux, checker, version, commit, buildTime)
package health
