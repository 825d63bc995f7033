package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"gfimx/policyd/pkg/cli"
	"gfimx/policyd/pkg/distributor"
	"gfimx/policyd/pkg/ledger"
	"gfimx/policyd/pkg/policy/watcher"
	"gfimx/policyd/pkg/server"
	"gfimx/policyd/pkg/telemetry/health"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the distribution daemon",
	Long: `Run the distribution daemon.

The daemon distributes once at startup and again whenever the policy
directory changes (policy.watch) or the schedule fires (schedule.cron).
When the policy directory is a git checkout, each run pulls first; use a
schedule to poll the repository.

An admin listener serves Prometheus metrics and the /healthz, /readyz
and /version endpoints. Ledger entries older than ledger.retention_days
are pruned on ledger.prune_schedule.

The daemon stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := newDaemon(a)
	if err != nil {
		return err
	}

	ctx, cancel := cli.SetupSignalHandler(commandContext(cmd))
	defer cancel()

	return d.run(ctx)
}

// runState is what readiness reports about distribution.
type runState struct {
	mu      sync.RWMutex
	runs    int
	lastErr error
	last    *distributor.Report
}

func (s *runState) set(report *distributor.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.lastErr = err
	if report != nil {
		s.last = report
	}
}

// check fails until a run has completed and whenever the latest run could
// not process the registry. Rejected policies do not make the daemon
// unready; they are reported per client.
func (s *runState) check(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runErr *distributor.RunError
	switch {
	case s.runs == 0:
		return errors.New("no distribution run yet")
	case s.lastErr != nil && !errors.As(s.lastErr, &runErr):
		return s.lastErr
	}
	return nil
}

type daemon struct {
	app     *app
	state   *runState
	checker *health.Checker
	srv     *server.Server
}

func newDaemon(a *app) (*daemon, error) {
	d := &daemon{
		app:     a,
		state:   &runState{},
		checker: health.New(2 * time.Second),
	}

	d.checker.RegisterCheck("last_run", d.state.check)
	if p, ok := a.backend.(interface{ Ping(context.Context) error }); ok {
		d.checker.RegisterCheck("store", p.Ping)
	}
	if a.repo != nil {
		d.checker.RegisterCheck("policy_source", func(context.Context) error {
			_, err := a.repo.CurrentCommit()
			return err
		})
	}

	mux := http.NewServeMux()
	if a.cfg.Telemetry.Metrics.Enabled {
		mux.Handle(a.cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	}
	health.Register(mux, d.checker, Version, GitCommit, BuildDate)

	d.srv = server.NewServer(a.cfg.Telemetry.Metrics.ListenAddress, mux, a.logger)
	if err := d.srv.Listen(); err != nil {
		return nil, cli.NewCommandError("serve", err)
	}
	return d, nil
}

// distribute is the trigger shared by startup, the watcher and the
// schedule. Runs are serialized by the distributor.
func (d *daemon) distribute(ctx context.Context, reason string) {
	logger := d.app.logger.With("trigger", reason)

	report, err := d.app.dist.Run(ctx)
	d.state.set(report, err)

	switch {
	case err != nil && ctx.Err() != nil:
		logger.Info("distribution interrupted by shutdown")
	case err != nil:
		logger.Error("distribution failed", "error", err)
	case report != nil && !report.OK():
		logger.Warn("distribution finished with failures",
			"run_id", report.RunID,
			"published", report.Published(),
			"failed", report.Failed(),
		)
	}
}

func (d *daemon) run(ctx context.Context) error {
	cfg := d.app.cfg
	logger := d.app.logger

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	srvErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.srv.Start(ctx); err != nil {
			srvErr <- err
			cancel()
		}
	}()

	d.distribute(ctx, "startup")

	if cfg.Policy.Watch {
		if cfg.Policy.Git.Enabled {
			logger.Warn("policy.watch is ignored for a git policy source; use schedule.cron to poll")
		} else {
			wcfg := watcher.DefaultConfig(cfg.PolicyDir())
			wcfg.DebounceInterval = cfg.Policy.DebounceInterval
			fw, err := watcher.New(wcfg, logger)
			if err != nil {
				return cli.NewCommandError("serve", err)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := fw.Watch(ctx, d.distribute); err != nil {
					logger.Error("file watcher failed", "error", err)
				}
			}()
			defer fw.Stop()
		}
	}

	if cfg.Schedule.Cron != "" {
		sched, err := watcher.NewSchedule(cfg.Schedule.Cron, logger)
		if err != nil {
			return cli.NewConfigError("schedule.cron", err.Error())
		}
		if err := sched.Start(ctx, d.distribute); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer sched.Stop()
	}

	if d.app.ledger != nil {
		pruner := ledger.NewScheduler(d.app.ledger, cfg.Ledger.PruneSchedule, cfg.Ledger.RetentionDays, logger)
		if err := pruner.Start(ctx); err != nil {
			return cli.NewConfigError("ledger.prune_schedule", err.Error())
		}
		defer pruner.Stop()
	}

	if !cfg.Policy.Watch && cfg.Schedule.Cron == "" {
		logger.Warn("neither policy.watch nor schedule.cron is set; only the startup run will happen")
	}

	logger.Info("daemon started", "admin_address", d.srv.Addr())
	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()

	select {
	case err := <-srvErr:
		return cli.NewCommandError("serve", fmt.Errorf("admin server: %w", err))
	default:
		return nil
	}
}
