package distributor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"gfimx/policyd/pkg/config"
	"gfimx/policyd/pkg/ledger"
	"gfimx/policyd/pkg/policy/loader"
	"gfimx/policyd/pkg/registry"
	"gfimx/policyd/pkg/store"
	"gfimx/policyd/pkg/telemetry/logging"
	"gfimx/policyd/pkg/telemetry/metrics"
	"gfimx/policyd/pkg/telemetry/tracing"
)

// Source refreshes the policy directory before a run, e.g. by pulling a
// git checkout, and returns the revision it now holds.
type Source interface {
	Sync(ctx context.Context) (string, error)
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithLedger records every client outcome in l.
func WithLedger(l ledger.Recorder) Option {
	return func(d *Distributor) { d.ledger = l }
}

// WithSource syncs src at the start of every run.
func WithSource(src Source) Option {
	return func(d *Distributor) { d.source = src }
}

// WithMetrics records run and client metrics into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Distributor) { d.metrics = c }
}

// WithTracer traces runs with t.
func WithTracer(t *tracing.Tracer) Option {
	return func(d *Distributor) { d.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Distributor) { d.logger = l }
}

// WithLoader replaces the loader built from the configuration.
func WithLoader(l *loader.Loader) Option {
	return func(d *Distributor) { d.loader = l }
}

// WithDryRun marks reports as dry runs. The caller supplies a throwaway
// store and no ledger.
func WithDryRun() Option {
	return func(d *Distributor) { d.dryRun = true }
}

// Distributor validates every registered client's policy and publishes the
// accepted ones to the store.
type Distributor struct {
	config  *config.Config
	store   store.Store
	loader  *loader.Loader
	ledger  ledger.Recorder
	source  Source
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	dryRun  bool

	// mu serializes runs triggered by the watcher and the schedule.
	mu      sync.Mutex
	lastRun *Report
}

// New creates a distributor publishing to st.
func New(cfg *config.Config, st store.Store, opts ...Option) (*Distributor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	d := &Distributor{
		config: cfg,
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.loader == nil {
		l, err := NewLoader(cfg)
		if err != nil {
			return nil, err
		}
		d.loader = l
	}
	if d.tracer == nil {
		d.tracer = tracing.Noop()
	}
	d.logger = d.logger.With("component", "distributor")

	return d, nil
}

// Run performs one distribution: it syncs the source, loads the registry,
// then loads, validates and publishes each client's policy in registry
// order.
//
// With on_error "skip" a failing client is recorded and the run moves on;
// the returned error is nil and the failures are in the Report. With
// "abort" the first failure stops the run and Run returns both the partial
// Report and a *RunError. Failures before any client is processed (source
// sync, registry) return a nil Report.
func (d *Distributor) Run(ctx context.Context) (*Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	report := &Report{
		RunID:   uuid.NewString(),
		DryRun:  d.dryRun,
		Started: time.Now(),
	}

	ctx = logging.WithRunID(ctx, report.RunID)
	ctx, span := d.tracer.Start(ctx, tracing.SpanRun)
	defer span.End()

	outcome := OutcomeFailed
	defer func() {
		report.Finished = time.Now()
		d.metrics.RecordRun(outcome, report.Duration())
	}()

	if d.source != nil {
		commit, err := d.source.Sync(ctx)
		if err != nil {
			failSpan(span, err)
			d.logger.ErrorContext(ctx, "policy source sync failed", "error", err)
			return nil, fmt.Errorf("failed to sync policy source: %w", err)
		}
		report.Commit = commit
	}

	reg, err := registry.Load(d.config.ClientsPath())
	if err != nil {
		failSpan(span, err)
		d.logger.ErrorContext(ctx, "client registry unusable", "error", err)
		return nil, err
	}

	clients := reg.Clients()
	tracing.SetRunAttributes(span, report.RunID, len(clients), report.Commit)
	d.logger.InfoContext(ctx, "distribution started",
		"clients", len(clients),
		"commit", report.Commit,
		"dry_run", d.dryRun,
	)

	dir := d.config.PolicyDir()
	for i, client := range clients {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			report.Skipped = len(clients) - i
			outcome = OutcomeAborted
			failSpan(span, err)
			d.finish(ctx, report)
			return report, err
		}

		o := d.distributeClient(ctx, report, client, dir)
		report.Outcomes = append(report.Outcomes, o)

		if o.Err != nil && d.config.Policy.OnError == config.OnErrorAbort {
			report.Aborted = true
			report.Skipped = len(clients) - i - 1
			outcome = OutcomeAborted

			runErr := &RunError{Client: client.Name, Stage: stageOf(o), Err: o.Err}
			failSpan(span, runErr)
			d.finish(ctx, report)
			return report, runErr
		}
	}

	outcome = OutcomeCompleted
	tracing.SetStatus(span, nil)
	d.finish(ctx, report)
	return report, nil
}

func (d *Distributor) finish(ctx context.Context, report *Report) {
	report.Finished = time.Now()
	d.lastRun = report

	level := slog.LevelInfo
	if !report.OK() {
		level = slog.LevelWarn
	}
	d.logger.Log(ctx, level, "distribution finished",
		"published", report.Published(),
		"failed", report.Failed(),
		"skipped", report.Skipped,
		"aborted", report.Aborted,
		"duration", report.Duration(),
	)
}

// distributeClient loads, validates and publishes one client's policy.
func (d *Distributor) distributeClient(ctx context.Context, report *Report, client registry.Client, dir string) Outcome {
	start := time.Now()
	path := client.PolicyPath(dir)

	ctx = logging.WithClient(ctx, client.Name)
	ctx, span := d.tracer.Start(ctx, tracing.SpanClient)
	defer span.End()
	tracing.SetClientAttributes(span, client.Name, path)

	o := Outcome{Client: client.Name, PolicyPath: path}

	policy, err := d.loader.LoadFromFile(client.Name, path)
	d.metrics.RecordExtraction(time.Since(start))
	if err != nil {
		_, o.ErrorType = classify(err)
		o.Status = ledger.StatusRejected
		o.Err = err

		d.recordPatternFailures(err)
		tracing.SetErrorType(span, o.ErrorType)
		failSpan(span, err)
		d.logger.WarnContext(ctx, "policy rejected",
			"policy", path,
			"error_type", o.ErrorType,
			"error", err,
		)
		return d.complete(ctx, report, o, start)
	}

	o.Checksum = policy.Checksum
	o.Patterns = policy.PatternCount()
	tracing.SetPolicyAttributes(span, policy.Checksum, o.Patterns)

	if err := d.publish(ctx, client.Name, policy); err != nil {
		o.Status = ledger.StatusPublishFailed
		o.ErrorType = ErrorTypePublish
		o.Err = err

		tracing.SetErrorType(span, o.ErrorType)
		failSpan(span, err)
		d.logger.ErrorContext(ctx, "policy publish failed", "error", err)
		return d.complete(ctx, report, o, start)
	}

	o.Status = ledger.StatusPublished
	d.metrics.RecordPatterns(o.Patterns)
	tracing.SetStatus(span, nil)
	d.logger.InfoContext(ctx, "policy published",
		"patterns", o.Patterns,
		"checksum", shortChecksum(o.Checksum),
	)
	return d.complete(ctx, report, o, start)
}

func (d *Distributor) publish(ctx context.Context, client string, policy *loader.Policy) error {
	ctx, span := d.tracer.Start(ctx, tracing.SpanPublish)
	defer span.End()

	backend := d.config.Store.Backend
	if b, ok := d.store.(interface{ Backend() string }); ok {
		backend = b.Backend()
	}
	tracing.SetStoreAttributes(span, backend, store.Key(client, d.config.Store.Redis.KeySuffix))

	err := d.store.Publish(ctx, client, policy.Raw)
	tracing.SetStatus(span, err)
	return err
}

// complete stamps the duration and records the outcome in metrics and the
// ledger. A ledger failure is logged and does not change the outcome.
func (d *Distributor) complete(ctx context.Context, report *Report, o Outcome, start time.Time) Outcome {
	o.Duration = time.Since(start)
	d.metrics.RecordClient(o.Client, string(o.Status), o.Duration)

	if d.ledger == nil {
		return o
	}

	entry := &ledger.Entry{
		RunID:      report.RunID,
		Client:     o.Client,
		PolicyPath: o.PolicyPath,
		Checksum:   o.Checksum,
		Status:     o.Status,
		ErrorType:  o.ErrorType,
		Patterns:   o.Patterns,
		Commit:     report.Commit,
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
	}
	if err := d.ledger.Record(ctx, entry); err != nil {
		d.logger.WarnContext(ctx, "failed to record distribution", "error", err)
	}
	return o
}

func (d *Distributor) recordPatternFailures(err error) {
	var extractErr *loader.ExtractError
	if !errors.As(err, &extractErr) {
		return
	}
	for _, f := range extractErr.Failures() {
		d.metrics.RecordPatternError(string(f.Type))
	}
}

// LastRun returns the most recent finished report, or nil.
func (d *Distributor) LastRun() *Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRun
}

func stageOf(o Outcome) Stage {
	if o.Status == ledger.StatusPublishFailed {
		return StagePublish
	}
	stage, _ := classify(o.Err)
	return stage
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

func failSpan(span trace.Span, err error) {
	tracing.SetError(span, err)
	tracing.SetStatus(span, err)
}
