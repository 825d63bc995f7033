package distributor

import (
	"time"

	"gfimx/policyd/pkg/ledger"
)

// Run outcomes as reported to metrics.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeFailed    = "failed"
)

// Outcome is the result of distributing one client's policy.
type Outcome struct {
	Client     string
	PolicyPath string
	Checksum   string
	Status     ledger.Status
	ErrorType  string
	Err        error
	Patterns   int
	Duration   time.Duration
}

// Report summarizes a distribution run.
type Report struct {
	RunID    string
	Commit   string
	DryRun   bool
	Started  time.Time
	Finished time.Time

	// Outcomes are in registry order. An aborted run has no outcomes for
	// the clients after the failing one.
	Outcomes []Outcome

	// Skipped counts registry clients not attempted because the run
	// aborted.
	Skipped int

	Aborted bool
}

// Duration returns the run's wall time.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Count returns the number of outcomes with status.
func (r *Report) Count(status ledger.Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Published returns the number of policies published.
func (r *Report) Published() int {
	return r.Count(ledger.StatusPublished)
}

// Failed returns the number of clients whose policy was rejected or could
// not be published.
func (r *Report) Failed() int {
	return len(r.Outcomes) - r.Published()
}

// OK reports whether every client's policy was published.
func (r *Report) OK() bool {
	return !r.Aborted && r.Failed() == 0
}

// Outcome returns the outcome for client.
func (r *Report) Outcome(client string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Client == client {
			return o, true
		}
	}
	return Outcome{}, false
}
