// Package config provides configuration management for the gfimx policy
// distributor.
//
// Configuration is read from a YAML file, layered over defaults, then
// overridden by environment variables and validated as a whole.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("/etc/gfimx/policyd.yaml")
//
// LoadOptional accepts a missing file and falls back to defaults plus the
// environment, which is how most deployments run.
//
// # Environment Variable Overrides
//
// The variables already used by existing deployments keep their names:
//
//   - GFIMX_POLICY_DIR overrides policy.dir (default /etc/gfimx/policy)
//   - REDIS_HOST and REDIS_PORT override store.redis.host and store.redis.port
//
// Every other override follows GFIMX_SECTION_FIELD, for example
// GFIMX_POLICY_ON_ERROR or GFIMX_TELEMETRY_LOGGING_LEVEL.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (all field errors are reported together)
//
// There is no global configuration instance. The loaded *Config is passed to
// the components that need it.
package config
