package metrics

import (
	"time"

	"gfimx/policyd/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PatternMetrics tracks pattern extraction.
//
// Metrics:
//   - gfimx_patterns_extracted_total: patterns extracted from accepted policies
//   - gfimx_patterns_per_policy: patterns per accepted policy
//   - gfimx_patterns_errors_total: pattern failures by error type
//   - gfimx_patterns_extraction_duration_seconds: time to extract and validate one policy
type PatternMetrics struct {
	extractedTotal     prometheus.Counter
	perPolicy          prometheus.Histogram
	errorsTotal        *prometheus.CounterVec
	extractionDuration prometheus.Histogram
}

// NewPatternMetrics creates and registers pattern metrics with the provided
// registry.
func NewPatternMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PatternMetrics {
	pm := &PatternMetrics{
		extractedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "patterns",
				Name:      "extracted_total",
				Help:      "Total number of patterns extracted from accepted policies",
			},
		),

		perPolicy: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "patterns",
				Name:      "per_policy",
				Help:      "Number of patterns per accepted policy",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
			},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "patterns",
				Name:      "errors_total",
				Help:      "Total number of pattern failures by error type",
			},
			[]string{"error_type"},
		),

		extractionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "patterns",
				Name:      "extraction_duration_seconds",
				Help:      "Time to extract and validate the patterns of one policy in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to 2.6s
			},
		),
	}

	registry.MustRegister(
		pm.extractedTotal,
		pm.perPolicy,
		pm.errorsTotal,
		pm.extractionDuration,
	)

	return pm
}

// RecordExtracted records the patterns of one accepted policy.
func (pm *PatternMetrics) RecordExtracted(count int) {
	pm.extractedTotal.Add(float64(count))
	pm.perPolicy.Observe(float64(count))
}

// RecordError records one pattern failure.
func (pm *PatternMetrics) RecordError(errorType string) {
	pm.errorsTotal.WithLabelValues(errorType).Inc()
}

// RecordExtraction records how long one policy took to extract.
func (pm *PatternMetrics) RecordExtraction(duration time.Duration) {
	pm.extractionDuration.Observe(duration.Seconds())
}
