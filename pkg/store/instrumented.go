package store

import (
	"context"
	"errors"
	"time"

	"gfimx/policyd/pkg/telemetry/metrics"
)

// ErrClosed is returned by a store that has been closed.
var ErrClosed = errors.New("store closed")

// Instrumented records the latency and result of every call to the wrapped
// store.
type Instrumented struct {
	next    Store
	backend string
	metrics *metrics.Collector
}

// Instrument wraps next. backend labels the metrics ("redis", "memory").
func Instrument(next Store, backend string, collector *metrics.Collector) *Instrumented {
	return &Instrumented{
		next:    next,
		backend: backend,
		metrics: collector,
	}
}

// Publish implements Store.
func (s *Instrumented) Publish(ctx context.Context, client, policy string) error {
	start := time.Now()
	err := s.next.Publish(ctx, client, policy)
	s.metrics.RecordStoreOperation(s.backend, "publish", err, time.Since(start))
	return err
}

// Fetch implements Store. A missing policy is not counted as an error.
func (s *Instrumented) Fetch(ctx context.Context, client string) (string, error) {
	start := time.Now()
	policy, err := s.next.Fetch(ctx, client)
	recorded := err
	if errors.Is(err, ErrNotFound) {
		recorded = nil
	}
	s.metrics.RecordStoreOperation(s.backend, "fetch", recorded, time.Since(start))
	return policy, err
}

// Close implements Store.
func (s *Instrumented) Close() error {
	return s.next.Close()
}

// Backend returns the metrics label of the wrapped store.
func (s *Instrumented) Backend() string {
	return s.backend
}
