package metrics

import (
	"time"

	"gfimx/policyd/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks calls to the policy store.
//
// Metrics:
//   - gfimx_store_operations_total: store calls by backend, operation and result
//   - gfimx_store_operation_duration_seconds: store call latency
type StoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewStoreMetrics creates and registers store metrics with the provided
// registry.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of policy store operations",
			},
			[]string{"backend", "operation", "result"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Duration of policy store operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15), // 100µs to 1.6s
			},
			[]string{"backend", "operation"},
		),
	}

	registry.MustRegister(
		sm.operationsTotal,
		sm.operationDuration,
	)

	return sm
}

// RecordOperation records one store call.
func (sm *StoreMetrics) RecordOperation(backend, operation string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	sm.operationsTotal.WithLabelValues(backend, operation, result).Inc()
	sm.operationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}
