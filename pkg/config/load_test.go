package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policyd.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
policy:
  dir: "/srv/policies"
  on_error: "abort"
  debounce_interval: "1s"

patterns:
  dialect: "regexp2"
  fail_fast: true

store:
  backend: "redis"
  redis:
    host: "redis.internal"
    port: 6380
    ttl: "24h"

telemetry:
  logging:
    level: "debug"
    format: "json"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Policy.Dir != "/srv/policies" {
		t.Errorf("Policy.Dir = %q, want %q", cfg.Policy.Dir, "/srv/policies")
	}
	if cfg.Policy.OnError != OnErrorAbort {
		t.Errorf("Policy.OnError = %q, want %q", cfg.Policy.OnError, OnErrorAbort)
	}
	if cfg.Policy.DebounceInterval != time.Second {
		t.Errorf("Policy.DebounceInterval = %v, want 1s", cfg.Policy.DebounceInterval)
	}
	if cfg.Patterns.Dialect != "regexp2" || !cfg.Patterns.FailFast {
		t.Errorf("Patterns = %+v", cfg.Patterns)
	}
	if cfg.Store.Redis.Host != "redis.internal" || cfg.Store.Redis.Port != 6380 {
		t.Errorf("Store.Redis = %s:%d", cfg.Store.Redis.Host, cfg.Store.Redis.Port)
	}
	if cfg.Store.Redis.TTL != 24*time.Hour {
		t.Errorf("Store.Redis.TTL = %v, want 24h", cfg.Store.Redis.TTL)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}

	// Untouched sections keep their defaults, including boolean ones.
	if !cfg.Patterns.AllClauses {
		t.Error("Patterns.AllClauses = false, want default true")
	}
	if !cfg.Ledger.Enabled {
		t.Error("Ledger.Enabled = false, want default true")
	}
	if cfg.Policy.ClientsFile != DefaultClientsFile {
		t.Errorf("Policy.ClientsFile = %q, want %q", cfg.Policy.ClientsFile, DefaultClientsFile)
	}
}

func TestLoadConfig_ExplicitFalseOverridesDefault(t *testing.T) {
	path := writeConfig(t, "ledger:\n  enabled: false\ntelemetry:\n  metrics:\n    enabled: false\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ledger.Enabled {
		t.Error("Ledger.Enabled = true, want false")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error = %v, want read failure", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "policy: [unclosed\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, "policy:\n  on_error: explode\n")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "policy.on_error") {
		t.Errorf("error = %v, want policy.on_error field", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "policy:\n  dir: /from/file\n")

	t.Setenv("GFIMX_POLICY_DIR", "/from/env")
	t.Setenv("REDIS_HOST", "cache.example")
	t.Setenv("REDIS_PORT", "7000")
	t.Setenv("GFIMX_POLICY_ON_ERROR", "abort")
	t.Setenv("GFIMX_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("GFIMX_LEDGER_ENABLED", "false")
	t.Setenv("GFIMX_POLICY_DEBOUNCE_INTERVAL", "2s")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Policy.Dir != "/from/env" {
		t.Errorf("Policy.Dir = %q, want /from/env", cfg.Policy.Dir)
	}
	if cfg.Store.Redis.Host != "cache.example" || cfg.Store.Redis.Port != 7000 {
		t.Errorf("Store.Redis = %s:%d, want cache.example:7000", cfg.Store.Redis.Host, cfg.Store.Redis.Port)
	}
	if cfg.Policy.OnError != OnErrorAbort {
		t.Errorf("Policy.OnError = %q", cfg.Policy.OnError)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Ledger.Enabled {
		t.Error("Ledger.Enabled = true, want false from env")
	}
	if cfg.Policy.DebounceInterval != 2*time.Second {
		t.Errorf("DebounceInterval = %v", cfg.Policy.DebounceInterval)
	}
}

func TestLoadConfigWithEnvOverrides_IgnoresMalformedValues(t *testing.T) {
	path := writeConfig(t, "store:\n  redis:\n    port: 6390\n")
	t.Setenv("REDIS_PORT", "not-a-port")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Redis.Port != 6390 {
		t.Errorf("Store.Redis.Port = %d, want 6390", cfg.Store.Redis.Port)
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	t.Setenv("GFIMX_POLICY_DIR", "/opt/policies")

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if cfg.Policy.Dir != "/opt/policies" {
		t.Errorf("Policy.Dir = %q, want /opt/policies", cfg.Policy.Dir)
	}
	if cfg.Store.Redis.Port != DefaultRedisPort {
		t.Errorf("Store.Redis.Port = %d, want default", cfg.Store.Redis.Port)
	}
}

func TestLoadOptional_InvalidFileStillFails(t *testing.T) {
	path := writeConfig(t, "patterns:\n  dialect: pcre\n")
	if _, err := LoadOptional(path); err == nil {
		t.Fatal("LoadOptional() error = nil, want validation error")
	}
}

func TestFromEnv_DefaultPolicyDir(t *testing.T) {
	t.Setenv("GFIMX_POLICY_DIR", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy.Dir != DefaultPolicyDir {
		t.Errorf("Policy.Dir = %q, want %q", cfg.Policy.Dir, DefaultPolicyDir)
	}
	if got := cfg.ClientsPath(); got != filepath.Join(DefaultPolicyDir, DefaultClientsFile) {
		t.Errorf("ClientsPath() = %q", got)
	}
}
