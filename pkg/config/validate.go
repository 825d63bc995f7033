package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validatePatterns(&cfg.Patterns)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validatePolicy validates policy source configuration.
func validatePolicy(cfg *PolicyConfig) []FieldError {
	var errs []FieldError

	if cfg.Dir == "" && !cfg.Git.Enabled {
		errs = append(errs, FieldError{
			Field:   "policy.dir",
			Message: "policy directory is required",
		})
	}

	if cfg.ClientsFile == "" {
		errs = append(errs, FieldError{
			Field:   "policy.clients_file",
			Message: "clients file is required",
		})
	}

	if cfg.MaxFileSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "policy.max_file_size",
			Message: "max file size must be positive",
		})
	}

	if cfg.OnError != OnErrorSkip && cfg.OnError != OnErrorAbort {
		errs = append(errs, FieldError{
			Field:   "policy.on_error",
			Message: fmt.Sprintf("invalid value %q (must be %q or %q)", cfg.OnError, OnErrorSkip, OnErrorAbort),
		})
	}

	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "policy.debounce_interval",
			Message: "debounce interval must be non-negative",
		})
	}

	if cfg.Git.Enabled {
		errs = append(errs, validateGit(&cfg.Git)...)
	}

	return errs
}

// validateGit validates the git policy source.
func validateGit(cfg *GitPolicyConfig) []FieldError {
	var errs []FieldError

	if cfg.Repository == "" {
		errs = append(errs, FieldError{
			Field:   "policy.git.repository",
			Message: "repository URL is required when git is enabled",
		})
	}

	if cfg.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "policy.git.depth",
			Message: "depth must be non-negative",
		})
	}

	switch cfg.Auth.Type {
	case "none":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{
				Field:   "policy.git.auth.token",
				Message: "token is required for token authentication",
			})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{
				Field:   "policy.git.auth.ssh_key_path",
				Message: "ssh key path is required for ssh authentication",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "policy.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q (must be none, token or ssh)", cfg.Auth.Type),
		})
	}

	return errs
}

// validatePatterns validates pattern extraction settings.
func validatePatterns(cfg *PatternsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Dialect {
	case "re2", "regexp2":
	default:
		errs = append(errs, FieldError{
			Field:   "patterns.dialect",
			Message: fmt.Sprintf("invalid dialect %q (must be re2 or regexp2)", cfg.Dialect),
		})
	}

	return errs
}

// validateStore validates the policy store configuration.
func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
		return errs
	case "redis":
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend %q (must be redis or memory)", cfg.Backend),
		})
		return errs
	}

	if cfg.Redis.Host == "" {
		errs = append(errs, FieldError{
			Field:   "store.redis.host",
			Message: "host is required",
		})
	}

	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "store.redis.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if cfg.Redis.DB < 0 {
		errs = append(errs, FieldError{
			Field:   "store.redis.db",
			Message: "db must be non-negative",
		})
	}

	if cfg.Redis.TTL < 0 {
		errs = append(errs, FieldError{
			Field:   "store.redis.ttl",
			Message: "ttl must be non-negative",
		})
	}

	return errs
}

// validateLedger validates the distribution ledger configuration.
func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "ledger.path",
			Message: "path is required when the ledger is enabled",
		})
	}

	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "ledger.retention_days",
			Message: "retention days must be non-negative",
		})
	}

	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "ledger.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateSchedule validates the redistribution schedule.
func validateSchedule(cfg *ScheduleConfig) []FieldError {
	var errs []FieldError

	if cfg.Cron == "" {
		return errs
	}

	if _, err := cron.ParseStandard(cfg.Cron); err != nil {
		errs = append(errs, FieldError{
			Field:   "schedule.cron",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

// validateTelemetry validates logging, metrics and tracing configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address: %v", err),
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with /",
			})
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0.0 and 1.0",
			})
		}
	}

	return errs
}
