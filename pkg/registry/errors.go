package registry

import "fmt"

// LoadError reports a registry file that could not be read or parsed.
type LoadError struct {
	// FilePath is the path to the registry file
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load client registry %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load client registry %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ClientError reports an invalid client entry.
type ClientError struct {
	// Client is the table name of the offending entry
	Client string

	// Field is the offending field, if any
	Field string

	// Message describes the problem
	Message string
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("client %q: %s: %s", e.Client, e.Field, e.Message)
	}
	return fmt.Sprintf("client %q: %s", e.Client, e.Message)
}
