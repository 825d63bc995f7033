// Package ledger keeps the history of distribution decisions: which policy
// was published to which client, which was rejected and why, and which
// could not be written to the store.
//
// History lives in a SQLite database (pure Go driver, WAL mode). A cron
// Scheduler prunes entries older than the configured retention.
package ledger
