package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteLedger stores distribution history in a SQLite database.
//
// The database runs in WAL mode with periodic checkpoints; a single
// connection serializes writers.
type SQLiteLedger struct {
	db                 *sql.DB
	path               string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// Config configures the SQLite ledger.
type Config struct {
	// Path is the database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration
}

// Open opens (creating if needed) the ledger database.
func Open(cfg Config) (*SQLiteLedger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &SQLiteLedger{
		db:                 db,
		path:               cfg.Path,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := l.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go l.checkpointLoop()

	return l, nil
}

func (l *SQLiteLedger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS distributions (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		client TEXT NOT NULL,
		policy_path TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error_type TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		patterns INTEGER NOT NULL DEFAULT 0,
		commit_sha TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_distributions_client ON distributions(client, created_at);
	CREATE INDEX IF NOT EXISTS idx_distributions_run ON distributions(run_id);
	CREATE INDEX IF NOT EXISTS idx_distributions_created ON distributions(created_at);
	`

	_, err := l.db.Exec(schema)
	return err
}

func (l *SQLiteLedger) prepareStatements() error {
	var err error

	l.insertStmt, err = l.db.Prepare(`
		INSERT INTO distributions
			(id, run_id, client, policy_path, checksum, status, error_type, error, patterns, commit_sha, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	l.pruneStmt, err = l.db.Prepare(`
		DELETE FROM distributions
		WHERE created_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Record stores entry. A missing ID or CreatedAt is filled in.
func (l *SQLiteLedger) Record(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if entry.Client == "" {
		return fmt.Errorf("client cannot be empty")
	}
	if entry.RunID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.insertStmt.ExecContext(ctx,
		entry.ID,
		entry.RunID,
		entry.Client,
		entry.PolicyPath,
		entry.Checksum,
		string(entry.Status),
		entry.ErrorType,
		entry.Error,
		entry.Patterns,
		entry.Commit,
		entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record entry: %w", err)
	}

	return nil
}

// Query returns entries matching filter, newest first.
func (l *SQLiteLedger) Query(ctx context.Context, filter Filter) ([]*Entry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Client != "" {
		where = append(where, "client = ?")
		args = append(args, filter.Client)
	}
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UnixMilli())
	}

	query := `SELECT id, run_id, client, policy_path, checksum, status, error_type, error, patterns, commit_sha, created_at
		FROM distributions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var (
			e         Entry
			status    string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Client, &e.PolicyPath, &e.Checksum, &status,
			&e.ErrorType, &e.Error, &e.Patterns, &e.Commit, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Status = Status(status)
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Prune deletes entries recorded before olderThan and returns how many were
// removed.
func (l *SQLiteLedger) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result, err := l.pruneStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(deleted), nil
}

// Path returns the database file.
func (l *SQLiteLedger) Path() string {
	return l.path
}

// Close releases the database. Close is idempotent.
func (l *SQLiteLedger) Close() error {
	var closeErr error

	l.closeOnce.Do(func() {
		close(l.done)

		if l.insertStmt != nil {
			l.insertStmt.Close()
		}
		if l.pruneStmt != nil {
			l.pruneStmt.Close()
		}

		if l.db != nil {
			_, _ = l.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = l.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (l *SQLiteLedger) checkpointLoop() {
	ticker := time.NewTicker(l.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			_, _ = l.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
			l.mu.Unlock()
		case <-l.done:
			return
		}
	}
}
