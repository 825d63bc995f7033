package metrics

import (
	"time"

	"gfimx/policyd/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DistributionMetrics tracks distribution runs and per-client outcomes.
//
// Metrics:
//   - gfimx_distribution_runs_total: runs by outcome
//   - gfimx_distribution_run_duration_seconds: run duration
//   - gfimx_distribution_last_run_timestamp_seconds: end time of the last run
//   - gfimx_distribution_clients_total: clients processed by status
//   - gfimx_distribution_client_duration_seconds: per-client duration
//   - gfimx_distribution_last_published_timestamp_seconds: last successful publish per client
type DistributionMetrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRun       prometheus.Gauge
	clientsTotal  *prometheus.CounterVec
	clientLatency prometheus.Histogram
	lastPublished *prometheus.GaugeVec
}

// NewDistributionMetrics creates and registers distribution metrics with the
// provided registry.
func NewDistributionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DistributionMetrics {
	dm := &DistributionMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "distribution",
				Name:      "runs_total",
				Help:      "Total number of distribution runs",
			},
			[]string{"outcome"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "distribution",
				Name:      "run_duration_seconds",
				Help:      "Duration of distribution runs in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),

		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "distribution",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last distribution run finished",
			},
		),

		clientsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "distribution",
				Name:      "clients_total",
				Help:      "Total number of clients processed by status",
			},
			[]string{"status"},
		),

		clientLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "distribution",
				Name:      "client_duration_seconds",
				Help:      "Time spent distributing one client policy in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to 26s
			},
		),

		lastPublished: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "distribution",
				Name:      "last_published_timestamp_seconds",
				Help:      "Unix time a client policy was last published",
			},
			[]string{"client"},
		),
	}

	registry.MustRegister(
		dm.runsTotal,
		dm.runDuration,
		dm.lastRun,
		dm.clientsTotal,
		dm.clientLatency,
		dm.lastPublished,
	)

	return dm
}

// RecordRun records a finished run.
func (dm *DistributionMetrics) RecordRun(outcome string, duration time.Duration) {
	dm.runsTotal.WithLabelValues(outcome).Inc()
	dm.runDuration.Observe(duration.Seconds())
	dm.lastRun.SetToCurrentTime()
}

// RecordClient records one client outcome.
func (dm *DistributionMetrics) RecordClient(status string, duration time.Duration) {
	dm.clientsTotal.WithLabelValues(status).Inc()
	dm.clientLatency.Observe(duration.Seconds())
}

// MarkPublished sets the client's last-published time to now.
func (dm *DistributionMetrics) MarkPublished(client string) {
	dm.lastPublished.WithLabelValues(client).SetToCurrentTime()
}
