package config

import "time"

// Default values for configuration fields.
const (
	// Policy defaults
	DefaultPolicyDir              = "/etc/gfimx/policy"
	DefaultClientsFile            = "clients.toml"
	DefaultMaxFileSize            = int64(1048576) // 1MB
	DefaultOnError                = OnErrorSkip
	DefaultDebounceInterval       = 250 * time.Millisecond
	DefaultGitBranch              = "main"
	DefaultGitPath                = "."
	DefaultGitLocalPath           = "/var/lib/gfimx/policy-repo"
	DefaultGitTimeout             = 60 * time.Second
	DefaultGitAuthType            = "none"
	DefaultPatternsDialect        = "re2"
	DefaultPatternsAllClauses     = true
	DefaultStoreBackend           = "redis"
	DefaultRedisHost              = "localhost"
	DefaultRedisPort              = 6379
	DefaultRedisKeySuffix         = "_policy"
	DefaultRedisDialTimeout       = 5 * time.Second
	DefaultRedisWriteTimeout      = 3 * time.Second
	DefaultLedgerEnabled          = true
	DefaultLedgerPath             = "/var/lib/gfimx/ledger.db"
	DefaultLedgerBusyTimeout      = 5 * time.Second
	DefaultLedgerRetentionDays    = 90
	DefaultLedgerPruneSchedule    = "0 3 * * *"
	DefaultLoggingLevel           = "info"
	DefaultLoggingFormat          = "text"
	DefaultLoggingRedact          = true
	DefaultMetricsEnabled         = true
	DefaultMetricsListenAddress   = "127.0.0.1:9464"
	DefaultMetricsPath            = "/metrics"
	DefaultMetricsNamespace       = "gfimx"
	DefaultTracingEndpoint        = "localhost:4317"
	DefaultTracingSampleRatio     = 1.0
	DefaultTracingServiceName     = "gfimx-policyd"
	DefaultTracingExporterTimeout = 10 * time.Second
)

// OnError values.
const (
	OnErrorSkip  = "skip"
	OnErrorAbort = "abort"
)

// NewDefaultConfig returns a configuration with every field set to its
// default, including the boolean defaults that ApplyDefaults cannot infer.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Patterns.AllClauses = DefaultPatternsAllClauses
	cfg.Ledger.Enabled = DefaultLedgerEnabled
	cfg.Telemetry.Logging.Redact = DefaultLoggingRedact
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Boolean fields
// are left untouched because false cannot be told apart from unset.
func ApplyDefaults(cfg *Config) {
	applyPolicyDefaults(&cfg.Policy)

	if cfg.Patterns.Dialect == "" {
		cfg.Patterns.Dialect = DefaultPatternsDialect
	}

	applyStoreDefaults(&cfg.Store)
	applyLedgerDefaults(&cfg.Ledger)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyPolicyDefaults(p *PolicyConfig) {
	if p.Dir == "" {
		p.Dir = DefaultPolicyDir
	}
	if p.ClientsFile == "" {
		p.ClientsFile = DefaultClientsFile
	}
	if p.MaxFileSize == 0 {
		p.MaxFileSize = DefaultMaxFileSize
	}
	if p.OnError == "" {
		p.OnError = DefaultOnError
	}
	if p.DebounceInterval == 0 {
		p.DebounceInterval = DefaultDebounceInterval
	}

	g := &p.Git
	if g.Branch == "" {
		g.Branch = DefaultGitBranch
	}
	if g.Path == "" {
		g.Path = DefaultGitPath
	}
	if g.LocalPath == "" {
		g.LocalPath = DefaultGitLocalPath
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGitTimeout
	}
	if g.Auth.Type == "" {
		g.Auth.Type = DefaultGitAuthType
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = DefaultStoreBackend
	}
	r := &s.Redis
	if r.Host == "" {
		r.Host = DefaultRedisHost
	}
	if r.Port == 0 {
		r.Port = DefaultRedisPort
	}
	if r.KeySuffix == "" {
		r.KeySuffix = DefaultRedisKeySuffix
	}
	if r.DialTimeout == 0 {
		r.DialTimeout = DefaultRedisDialTimeout
	}
	if r.WriteTimeout == 0 {
		r.WriteTimeout = DefaultRedisWriteTimeout
	}
}

func applyLedgerDefaults(l *LedgerConfig) {
	if l.Path == "" {
		l.Path = DefaultLedgerPath
	}
	if l.BusyTimeout == 0 {
		l.BusyTimeout = DefaultLedgerBusyTimeout
	}
	if l.RetentionDays == 0 {
		l.RetentionDays = DefaultLedgerRetentionDays
	}
	if l.PruneSchedule == "" {
		l.PruneSchedule = DefaultLedgerPruneSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.ListenAddress == "" {
		t.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}

	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingExporterTimeout
	}
}
