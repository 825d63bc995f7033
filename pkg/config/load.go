package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields absent from the file keep their defaults. The result is validated;
// environment variables are not consulted (see LoadConfigWithEnvOverrides).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides, which always take precedence.
//
// The loading sequence is:
// 1. Default values
// 2. YAML file
// 3. Environment variable overrides
// 4. Validation
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	return finish(cfg)
}

// LoadOptional behaves like LoadConfigWithEnvOverrides, except that a
// missing file yields the defaults with environment overrides applied. This
// matches deployments configured through the environment alone.
func LoadOptional(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv()
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (*Config, error) {
	return finish(NewDefaultConfig())
}

func parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. GFIMX_POLICY_DIR, REDIS_HOST and REDIS_PORT keep the names
// existing deployments already set; everything else follows GFIMX_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Policy overrides
	setString(&cfg.Policy.Dir, "GFIMX_POLICY_DIR")
	setString(&cfg.Policy.ClientsFile, "GFIMX_POLICY_CLIENTS_FILE")
	setString(&cfg.Policy.OnError, "GFIMX_POLICY_ON_ERROR")
	setBool(&cfg.Policy.Watch, "GFIMX_POLICY_WATCH")
	setBool(&cfg.Policy.Git.Enabled, "GFIMX_POLICY_GIT_ENABLED")
	setString(&cfg.Policy.Git.Repository, "GFIMX_POLICY_GIT_REPOSITORY")
	setString(&cfg.Policy.Git.Branch, "GFIMX_POLICY_GIT_BRANCH")
	setString(&cfg.Policy.Git.Auth.Token, "GFIMX_POLICY_GIT_TOKEN")

	// Patterns overrides
	setString(&cfg.Patterns.Dialect, "GFIMX_PATTERNS_DIALECT")
	setBool(&cfg.Patterns.FailFast, "GFIMX_PATTERNS_FAIL_FAST")

	// Store overrides
	setString(&cfg.Store.Backend, "GFIMX_STORE_BACKEND")
	setString(&cfg.Store.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Store.Redis.Port, "REDIS_PORT")
	setString(&cfg.Store.Redis.Password, "GFIMX_STORE_REDIS_PASSWORD")
	setInt(&cfg.Store.Redis.DB, "GFIMX_STORE_REDIS_DB")

	// Ledger overrides
	setBool(&cfg.Ledger.Enabled, "GFIMX_LEDGER_ENABLED")
	setString(&cfg.Ledger.Path, "GFIMX_LEDGER_PATH")
	setInt(&cfg.Ledger.RetentionDays, "GFIMX_LEDGER_RETENTION_DAYS")

	// Schedule overrides
	setString(&cfg.Schedule.Cron, "GFIMX_SCHEDULE_CRON")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "GFIMX_TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "GFIMX_TELEMETRY_LOGGING_FORMAT")
	setBool(&cfg.Telemetry.Metrics.Enabled, "GFIMX_TELEMETRY_METRICS_ENABLED")
	setString(&cfg.Telemetry.Metrics.ListenAddress, "GFIMX_TELEMETRY_METRICS_LISTEN_ADDRESS")
	setBool(&cfg.Telemetry.Tracing.Enabled, "GFIMX_TELEMETRY_TRACING_ENABLED")
	setString(&cfg.Telemetry.Tracing.Endpoint, "GFIMX_TELEMETRY_TRACING_ENDPOINT")
	if val := os.Getenv("GFIMX_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	if val := os.Getenv("GFIMX_POLICY_DEBOUNCE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Policy.DebounceInterval = d
		}
	}
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}
