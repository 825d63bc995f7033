package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gfimx/policyd/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_DefaultNamespace(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	collector.RecordRun("completed", time.Second)

	if got := testutil.ToFloat64(collector.distributionMetrics.runsTotal.WithLabelValues("completed")); got != 1 {
		t.Errorf("runs_total = %v, want 1", got)
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, config.DefaultMetricsNamespace)
	}
}

func TestCollector_RecordClient(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordClient("acme", "published", 10*time.Millisecond)
	collector.RecordClient("globex", "published", 20*time.Millisecond)
	collector.RecordClient("initech", "rejected", time.Millisecond)

	dm := collector.distributionMetrics
	if got := testutil.ToFloat64(dm.clientsTotal.WithLabelValues("published")); got != 2 {
		t.Errorf("clients_total{published} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(dm.clientsTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("clients_total{rejected} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(dm.lastPublished); got != 2 {
		t.Errorf("last_published series = %d, want 2", got)
	}
	if got := testutil.ToFloat64(dm.lastPublished.WithLabelValues("acme")); got <= 0 {
		t.Errorf("last_published{acme} = %v, want a timestamp", got)
	}
}

func TestCollector_RecordPatterns(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordPatterns(3)
	collector.RecordPatterns(4)
	collector.RecordPatternError("invalid_pattern")
	collector.RecordPatternError("invalid_pattern")
	collector.RecordPatternError("stray_escape_marker")
	collector.RecordExtraction(time.Millisecond)

	pm := collector.patternMetrics
	if got := testutil.ToFloat64(pm.extractedTotal); got != 7 {
		t.Errorf("extracted_total = %v, want 7", got)
	}
	if got := testutil.ToFloat64(pm.errorsTotal.WithLabelValues("invalid_pattern")); got != 2 {
		t.Errorf("errors_total{invalid_pattern} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pm.errorsTotal.WithLabelValues("stray_escape_marker")); got != 1 {
		t.Errorf("errors_total{stray_escape_marker} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(pm.extractionDuration); got != 1 {
		t.Errorf("extraction_duration series = %d, want 1", got)
	}
}

func TestCollector_RecordStoreOperation(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordStoreOperation("redis", "publish", nil, time.Millisecond)
	collector.RecordStoreOperation("redis", "publish", errors.New("connection refused"), time.Millisecond)

	sm := collector.storeMetrics
	if got := testutil.ToFloat64(sm.operationsTotal.WithLabelValues("redis", "publish", "success")); got != 1 {
		t.Errorf("operations_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sm.operationsTotal.WithLabelValues("redis", "publish", "error")); got != 1 {
		t.Errorf("operations_total{error} = %v, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordRun("completed", time.Second)
	collector.RecordPatterns(5)

	if got := testutil.ToFloat64(collector.patternMetrics.extractedTotal); got != 0 {
		t.Errorf("extracted_total = %v, want 0 when disabled", got)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var collector *Collector

	collector.RecordRun("completed", time.Second)
	collector.RecordClient("acme", "published", time.Second)
	collector.RecordPatterns(1)
	collector.RecordPatternError("invalid_pattern")
	collector.RecordStoreOperation("memory", "fetch", nil, time.Second)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordRun("completed", 2*time.Second)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_distribution_runs_total{outcome="completed"} 1`) {
		t.Errorf("metrics output missing run counter:\n%s", rec.Body.String())
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(2)

	if !limiter.Allow("a") || !limiter.Allow("b") {
		t.Fatal("Allow() = false below the limit")
	}
	if limiter.Allow("c") {
		t.Error("Allow(c) = true above the limit")
	}
	if !limiter.Allow("a") {
		t.Error("Allow(a) = false for a tracked value")
	}
	if got := limiter.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestCollector_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordClient("acme", "published", time.Millisecond)
	collector.RecordClient("globex", "published", time.Millisecond)

	if got := testutil.CollectAndCount(collector.distributionMetrics.lastPublished); got != 1 {
		t.Errorf("last_published series = %d, want 1", got)
	}
}
