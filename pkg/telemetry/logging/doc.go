// Package logging builds the structured loggers used across gfimx.
//
// Loggers are plain *slog.Logger values. New wraps the configured JSON or
// text handler so that every record logged with a context carries the
// distribution run ID, the client being processed and, when tracing is on,
// the trace and span IDs:
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(logging.WithClient(ctx, "acme"), "policy published")
//
// With redaction enabled, fields named like client_key, password, token or
// secret are masked to their first four characters, and credentials embedded
// in URLs or error strings are replaced with ***.
package logging
