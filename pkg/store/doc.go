// Package store publishes accepted policies to the place monitoring clients
// read them from.
//
// The production backend is Redis: each client's policy text is stored as a
// string under "<client>_policy". MemoryStore implements the same keying in
// process for dry runs and tests, and Instrument wraps either with
// Prometheus metrics.
package store
