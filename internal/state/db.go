// Package state provides SQLite-based persistence for HiveCore.
// It handles both global state (~/.local/share/hivecore/hivecore.db) and
// project-local state (.hivecore/state.db).
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite database connection with HiveCore-specific operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// GlobalDBPath returns the path to the global HiveCore database.
func GlobalDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "hivecore", "hivecore.db")
}

// ProjectDBPath returns the path to the project-local database.
func ProjectDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".hivecore", "state.db")
}

// Open opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// OpenGlobal opens the global HiveCore database.
func OpenGlobal() (*DB, error) {
	return Open(GlobalDBPath())
}

// OpenProject opens the project-local database.
func OpenProject(projectRoot string) (*DB, error) {
	return Open(ProjectDBPath(projectRoot))
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Profiles},
		{2, migrationV2Rounds},
		{3, migrationV3Executions},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Migration SQL statements
const migrationV1Profiles = `
CREATE TABLE IF NOT EXISTS agent_profiles (
	agent_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT,
	capabilities TEXT NOT NULL DEFAULT '{}',
	performance REAL NOT NULL DEFAULT 0.0,
	brand REAL NOT NULL DEFAULT 0.0,
	recognition REAL NOT NULL DEFAULT 0.0,
	faults TEXT NOT NULL DEFAULT '[]',
	cold_start INTEGER NOT NULL DEFAULT 1,
	active INTEGER NOT NULL DEFAULT 1,
	last_success_at DATETIME,
	registered_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_agent_profiles_active ON agent_profiles(active);
`

const migrationV2Rounds = `
CREATE TABLE IF NOT EXISTS execution_rounds (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	round_number INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	max_inner_rounds INTEGER NOT NULL DEFAULT 1,
	parallel INTEGER NOT NULL DEFAULT 0,
	requirement_text TEXT,
	current_inner_round INTEGER NOT NULL DEFAULT 0,
	total_inner_rounds INTEGER NOT NULL DEFAULT 0,
	passed_requirements INTEGER NOT NULL DEFAULT 0,
	failed_requirements INTEGER NOT NULL DEFAULT 0,
	tokens_used INTEGER NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0.0,
	llm_calls INTEGER NOT NULL DEFAULT 0,
	summary TEXT,
	error TEXT,
	started_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_execution_rounds_project ON execution_rounds(project_id);
CREATE INDEX IF NOT EXISTS idx_execution_rounds_status ON execution_rounds(status);
`

const migrationV3Executions = `
CREATE TABLE IF NOT EXISTS requirement_executions (
	id TEXT PRIMARY KEY,
	round_id TEXT NOT NULL,
	requirement_id TEXT NOT NULL,
	inner_round INTEGER NOT NULL DEFAULT 1,
	attempt INTEGER NOT NULL DEFAULT 1,
	depends_on TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	is_passed INTEGER NOT NULL DEFAULT 0,
	pass_rate REAL NOT NULL DEFAULT 0.0,
	agent_id TEXT,
	worker_id TEXT,
	tokens_used INTEGER NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0.0,
	llm_calls INTEGER NOT NULL DEFAULT 0,
	blueprint TEXT,
	code_result TEXT,
	qa_result TEXT,
	error TEXT,
	started_at DATETIME,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_requirement_executions_round ON requirement_executions(round_id);
CREATE INDEX IF NOT EXISTS idx_requirement_executions_req ON requirement_executions(round_id, requirement_id);
CREATE INDEX IF NOT EXISTS idx_requirement_executions_status ON requirement_executions(status);
`

// Exec executes a query that doesn't return rows.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.QueryRow(query, args...)
}

// Transaction runs the given function within a transaction.
func (db *DB) Transaction(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// parseNullableTime parses a nullable time string from SQLite.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}

// formatNullableTime formats a *time.Time for SQLite storage.
func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// PurgeOldRounds deletes terminal rounds older than the specified duration,
// along with their execution rows. Returns the number of rounds deleted.
func (db *DB) PurgeOldRounds(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	var count int64
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM requirement_executions WHERE round_id IN (
				SELECT id FROM execution_rounds
				WHERE started_at < ? AND status IN ('completed', 'failed', 'cancelled')
			)
		`, cutoff); err != nil {
			return fmt.Errorf("purge old executions: %w", err)
		}

		result, err := tx.Exec(`
			DELETE FROM execution_rounds
			WHERE started_at < ? AND status IN ('completed', 'failed', 'cancelled')
		`, cutoff)
		if err != nil {
			return fmt.Errorf("purge old rounds: %w", err)
		}
		count, err = result.RowsAffected()
		return err
	})
	return count, err
}
