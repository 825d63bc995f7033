package metrics

import (
	"sync"
	"time"

	"gfimx/policyd/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric exported by gfimx and gives the
// distributor, the pattern engine callers and the store a single place to
// record into.
//
// A nil *Collector is valid and records nothing, so components can run
// without metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	distributionMetrics *DistributionMetrics
	patternMetrics      *PatternMetrics
	storeMetrics        *StoreMetrics

	// Bounds the per-client label on the last-published gauge.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a private
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "gfimx"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.distributionMetrics = NewDistributionMetrics(cfg, registry)
	c.patternMetrics = NewPatternMetrics(cfg, registry)
	c.storeMetrics = NewStoreMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRun records a finished distribution run.
//
// Parameters:
//   - outcome: "completed", "aborted" or "failed"
//   - duration: wall time of the run
func (c *Collector) RecordRun(outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.distributionMetrics.RecordRun(outcome, duration)
}

// RecordClient records the outcome of distributing one client's policy.
//
// Parameters:
//   - client: client name
//   - status: "published", "rejected" or "publish_failed"
//   - duration: time spent on the client
func (c *Collector) RecordClient(client, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.distributionMetrics.RecordClient(status, duration)

	if status == "published" && c.cardinalityLimiter.Allow(client) {
		c.distributionMetrics.MarkPublished(client)
	}
}

// RecordPatterns records the number of patterns extracted from a policy.
func (c *Collector) RecordPatterns(count int) {
	if !c.enabled() {
		return
	}

	c.patternMetrics.RecordExtracted(count)
}

// RecordExtraction records the time spent extracting one policy, whether it
// was accepted or not.
func (c *Collector) RecordExtraction(duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.patternMetrics.RecordExtraction(duration)
}

// RecordPatternError records one pattern failure by error type, e.g.
// "invalid_pattern" or "stray_escape_marker".
func (c *Collector) RecordPatternError(errorType string) {
	if !c.enabled() {
		return
	}

	c.patternMetrics.RecordError(errorType)
}

// RecordStoreOperation records a store call.
//
// Parameters:
//   - backend: "redis" or "memory"
//   - operation: "publish" or "fetch"
//   - err: the call's error, nil on success
//   - duration: call latency
func (c *Collector) RecordStoreOperation(backend, operation string, err error, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.storeMetrics.RecordOperation(backend, operation, err, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: it is either already
// tracked or the limit has not been reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
