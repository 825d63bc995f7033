package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration structure for the gfimx policy
// distributor. A Config is loaded once at startup and passed explicitly to
// every component that needs it.
type Config struct {
	// Policy locates the client registry and policy files and controls how
	// a failing policy affects a distribution run.
	Policy PolicyConfig `yaml:"policy"`

	// Patterns controls pattern extraction and regex validation.
	Patterns PatternsConfig `yaml:"patterns"`

	// Store configures the downstream policy store clients read from.
	Store StoreConfig `yaml:"store"`

	// Ledger configures the distribution history database.
	Ledger LedgerConfig `yaml:"ledger"`

	// Schedule configures periodic redistribution in serve mode.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig contains configuration for loading client policies.
type PolicyConfig struct {
	// Dir is the policy directory holding the client registry and the
	// per-client policy files.
	// Default: "/etc/gfimx/policy"
	Dir string `yaml:"dir"`

	// ClientsFile is the client registry file name, relative to Dir.
	// Default: "clients.toml"
	ClientsFile string `yaml:"clients_file"`

	// MaxFileSize is the largest policy file accepted, in bytes.
	// Default: 1048576 (1MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// OnError decides what a run does when one client's policy fails:
	// "skip" logs the failure and continues with the next client, "abort"
	// stops the run.
	// Default: "skip"
	OnError string `yaml:"on_error"`

	// Watch enables redistribution when files in Dir change (serve mode).
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period after a file change before a
	// redistribution is triggered.
	// Default: 250ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Git optionally sources the policy directory from a git repository.
	Git GitPolicyConfig `yaml:"git"`
}

// GitPolicyConfig configures the git policy source.
type GitPolicyConfig struct {
	// Enabled turns the git source on. When enabled the policy directory is
	// LocalPath joined with Path.
	Enabled bool `yaml:"enabled"`

	// Repository is the clone URL.
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path is the policy directory inside the repository.
	// Default: "."
	Path string `yaml:"path"`

	// LocalPath is where the repository is checked out.
	// Default: "/var/lib/gfimx/policy-repo"
	LocalPath string `yaml:"local_path"`

	// Depth limits clone history; 0 clones everything.
	Depth int `yaml:"depth"`

	// Timeout bounds clone and pull operations.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures repository authentication.
	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig configures git authentication.
type GitAuthConfig struct {
	// Type is "none", "token" or "ssh".
	Type string `yaml:"type"`

	// Token is the HTTPS access token for Type "token".
	Token string `yaml:"token"`

	// SSHKeyPath is the private key for Type "ssh".
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase decrypts SSHKeyPath, if needed.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// PatternsConfig controls pattern extraction.
type PatternsConfig struct {
	// Dialect is the regex dialect patterns are validated against:
	// "re2" or "regexp2".
	// Default: "re2"
	Dialect string `yaml:"dialect"`

	// FailFast stops validation at the first invalid pattern instead of
	// reporting all of them.
	// Default: false
	FailFast bool `yaml:"fail_fast"`

	// AllClauses validates every patterns clause of a policy file rather
	// than only the first.
	// Default: true
	AllClauses bool `yaml:"all_clauses"`
}

// StoreConfig configures the downstream policy store.
type StoreConfig struct {
	// Backend is "redis" or "memory".
	// Default: "redis"
	Backend string `yaml:"backend"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis policy store.
type RedisConfig struct {
	// Host of the redis server.
	// Default: "localhost"
	Host string `yaml:"host"`

	// Port of the redis server.
	// Default: 6379
	Port int `yaml:"port"`

	// DB is the redis database number.
	DB int `yaml:"db"`

	// Username and Password authenticate against redis ACLs.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// KeySuffix is appended to the client name to form the policy key.
	// Default: "_policy"
	KeySuffix string `yaml:"key_suffix"`

	// DialTimeout bounds connection establishment.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// WriteTimeout bounds a single command.
	// Default: 3s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// TTL expires published policies; 0 keeps them forever.
	TTL time.Duration `yaml:"ttl"`
}

// LedgerConfig configures the distribution history.
type LedgerConfig struct {
	// Enabled turns recording on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "/var/lib/gfimx/ledger.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// RetentionDays prunes records older than this many days; 0 keeps all.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// ScheduleConfig configures periodic redistribution.
type ScheduleConfig struct {
	// Cron is a standard cron expression; empty disables the schedule.
	Cron string `yaml:"cron"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json", "text" or "console".
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// Redact masks client keys and credentials in log fields.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress serves /metrics and /healthz in serve mode.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "gfimx"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of runs traced, 0.0 to 1.0.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported on every span.
	// Default: "gfimx-policyd"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds exporter calls.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// PolicyDir returns the effective policy directory, accounting for the git
// source.
func (c *Config) PolicyDir() string {
	if c.Policy.Git.Enabled {
		return filepath.Join(c.Policy.Git.LocalPath, c.Policy.Git.Path)
	}
	return c.Policy.Dir
}

// ClientsPath returns the path of the client registry file.
func (c *Config) ClientsPath() string {
	if filepath.IsAbs(c.Policy.ClientsFile) {
		return c.Policy.ClientsFile
	}
	return filepath.Join(c.PolicyDir(), c.Policy.ClientsFile)
}
