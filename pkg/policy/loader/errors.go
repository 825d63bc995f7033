package loader

import (
	"fmt"

	"gfimx/policyd/pkg/patterns"
)

// LoadError represents an error that occurred while reading a policy file.
// This includes file system errors like "file not found", "permission denied",
// or errors related to file size limits or encoding validation.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error that caused this load error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load policy file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load policy file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ExtractError reports a policy file whose patterns could not be extracted.
// Cause is a *patterns.Error or a *patterns.ErrorList.
type ExtractError struct {
	// FilePath is the policy file
	FilePath string

	// Client owns the policy, empty when linting a bare file
	Client string

	// Cause is the extraction failure
	Cause error
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	return fmt.Sprintf("invalid patterns in %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// Type returns the category of the first failure.
func (e *ExtractError) Type() patterns.ErrorType {
	t, _ := patterns.TypeOf(e.Cause)
	return t
}

// Failures returns every individual failure.
func (e *ExtractError) Failures() []*patterns.Error {
	return patterns.Failures(e.Cause)
}
