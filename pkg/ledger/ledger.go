package ledger

import (
	"context"
	"time"
)

// Status is the outcome of distributing one client's policy.
type Status string

const (
	// StatusPublished means the policy passed validation and was stored.
	StatusPublished Status = "published"

	// StatusRejected means the policy failed to load or its patterns were
	// invalid; nothing was stored.
	StatusRejected Status = "rejected"

	// StatusPublishFailed means the policy was valid but the store write
	// failed.
	StatusPublishFailed Status = "publish_failed"
)

// Entry is one distribution decision.
type Entry struct {
	ID         string
	RunID      string
	Client     string
	PolicyPath string
	Checksum   string
	Status     Status

	// ErrorType is the failure category, e.g. "invalid_pattern" or
	// "load_error"; empty for published entries.
	ErrorType string
	Error     string

	Patterns  int
	Commit    string
	CreatedAt time.Time
}

// Filter selects entries in Query. Zero fields match everything.
type Filter struct {
	Client string
	RunID  string
	Status Status
	Since  time.Time

	// Limit caps the number of entries; 0 means no limit.
	Limit int
}

// Recorder records distribution decisions.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
}
