package distributor

import (
	"errors"
	"fmt"

	"gfimx/policyd/pkg/policy/loader"
)

// Stage names the step of a client's distribution that failed.
type Stage string

const (
	StageLoad    Stage = "load"
	StageExtract Stage = "extract"
	StagePublish Stage = "publish"
)

// Error type names recorded for failures outside the pattern engine.
const (
	ErrorTypeLoad    = "load_error"
	ErrorTypePublish = "publish_failed"
)

// RunError stops a run configured with on_error "abort". It names the
// client whose policy failed and keeps the underlying error.
type RunError struct {
	// Client whose policy failed
	Client string

	// Stage at which it failed
	Stage Stage

	// Err is a *loader.LoadError, a *loader.ExtractError or a store error
	Err error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("distribution aborted at client %q (%s): %v", e.Client, e.Stage, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *RunError) Unwrap() error {
	return e.Err
}

// classify maps a load failure to its stage and error type.
func classify(err error) (Stage, string) {
	var extractErr *loader.ExtractError
	if errors.As(err, &extractErr) {
		return StageExtract, string(extractErr.Type())
	}
	return StageLoad, ErrorTypeLoad
}
