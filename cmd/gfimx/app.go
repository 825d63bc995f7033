package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gfimx/policyd/pkg/cli"
	"gfimx/policyd/pkg/config"
	"gfimx/policyd/pkg/distributor"
	"gfimx/policyd/pkg/ledger"
	"gfimx/policyd/pkg/policy/git"
	"gfimx/policyd/pkg/store"
	"gfimx/policyd/pkg/telemetry/logging"
	"gfimx/policyd/pkg/telemetry/metrics"
	"gfimx/policyd/pkg/telemetry/tracing"
)

// loadConfig reads the configuration. A missing file is only an error when
// --config was given explicitly.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rootCmd.PersistentFlags().Changed("config") {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
	} else {
		cfg, err = config.LoadOptional(cfgFile)
	}
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg and installs it as the
// slog default. --verbose forces debug level.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		lc.Level = "debug"
	}
	lc.Writer = w

	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

type appOptions struct {
	// dryRun publishes into a throwaway memory store and skips the ledger.
	dryRun bool

	// onError overrides policy.on_error when set.
	onError string
}

// app holds the components shared by distribute and serve.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend store.Store
	store   *store.Instrumented
	ledger  *ledger.SQLiteLedger
	repo    *git.Repository
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	dist    *distributor.Distributor
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.onError != "" {
		if opts.onError != config.OnErrorSkip && opts.onError != config.OnErrorAbort {
			return nil, cli.NewConfigError("on-error", fmt.Sprintf("must be %q or %q, got %q", config.OnErrorSkip, config.OnErrorAbort, opts.onError))
		}
		cfg.Policy.OnError = opts.onError
	}

	logger, err := newLogger(cfg, errWriter(cmd))
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	backendName := cfg.Store.Backend
	if opts.dryRun {
		backendName = "memory"
		a.backend = store.NewMemoryStore(cfg.Store.Redis.KeySuffix)
	} else {
		a.backend, err = store.New(cfg.Store)
		if err != nil {
			a.Close()
			return nil, cli.NewConfigError("store.backend", err.Error())
		}
	}
	a.store = store.Instrument(a.backend, backendName, a.metrics)

	distOpts := []distributor.Option{
		distributor.WithLogger(logger),
		distributor.WithMetrics(a.metrics),
		distributor.WithTracer(a.tracer),
	}
	if opts.dryRun {
		distOpts = append(distOpts, distributor.WithDryRun())
	} else if cfg.Ledger.Enabled {
		a.ledger, err = openLedger(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		distOpts = append(distOpts, distributor.WithLedger(a.ledger))
	}

	if cfg.Policy.Git.Enabled {
		a.repo, err = git.NewRepository(&cfg.Policy.Git, logger)
		if err != nil {
			a.Close()
			return nil, cli.NewConfigError("policy.git", err.Error())
		}
		distOpts = append(distOpts, distributor.WithSource(a.repo))
	}

	a.dist, err = distributor.New(cfg, a.store, distOpts...)
	if err != nil {
		a.Close()
		return nil, cli.NewConfigError("patterns", err.Error())
	}

	return a, nil
}

func openLedger(cfg *config.Config) (*ledger.SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.Path), 0o755); err != nil {
		return nil, cli.NewCommandError("ledger", err)
	}
	l, err := ledger.Open(ledger.Config{
		Path:        cfg.Ledger.Path,
		BusyTimeout: cfg.Ledger.BusyTimeout,
	})
	if err != nil {
		return nil, cli.NewCommandError("ledger", err)
	}
	return l, nil
}

// Close releases the store, the ledger and the tracer.
func (a *app) Close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Warn("failed to close ledger", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close store", "error", err)
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("failed to shut down tracer", "error", err)
		}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func outWriter(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.OutOrStdout()
	}
	return os.Stdout
}

func errWriter(cmd *cobra.Command) io.Writer {
	if cmd != nil {
		return cmd.ErrOrStderr()
	}
	return os.Stderr
}
