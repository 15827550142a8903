/*
Package sqlite provides a SQLite-backed implementation of the vacation storage ports.

PURPOSE:
  Implements vacation.TxStore (employees, policies, periods, change requests,
  audit log) and calendar.Provider (holidays, settings) on one database file.

KEY TABLES:
  employees:             Staff records with a self-referencing manager_id
  policies:              Permitted start months (JSON array)
  vacation_periods:      Leave periods and their status
  modification_requests: Proposed new dates for a period
  suspension_requests:   Proposed cancellation or shortening of a period
  audit_log:             Append-only history (UPDATE is blocked by trigger)
  holidays:              Dated, location-tagged holidays
  settings:              Raw calendar toggles

CASCADES:
  Deleting a period removes its audit entries and change requests through
  ON DELETE CASCADE. Upserts use ON CONFLICT DO UPDATE, never INSERT OR
  REPLACE, which would delete the row and fire those cascades.

CONCURRENCY:
  The pool holds a single connection, so SQLite sees one writer at a time and
  ":memory:" databases are shared by every call. WithTx additionally takes the
  store mutex so a balance check and its write are never interleaved with
  another operation's.

USAGE:
  store, err := sqlite.New("./data/vacation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := vacation.NewService(store, store)

SEE ALSO:
  - vacation/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// Store implements vacation.TxStore and calendar.Provider using SQLite.
type Store struct {
	*repo
	db       *sql.DB
	mu       sync.Mutex
	defaults calendar.Config
}

type Option func(*Store)

// WithDefaultSettings sets the calendar toggles written on first migration.
// Settings already present in the database are left alone.
func WithDefaultSettings(cfg calendar.Config) Option {
	return func(s *Store) { s.defaults = cfg }
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{repo: &repo{q: db}, db: db, defaults: calendar.DefaultConfig()}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the schema and seeds default settings. Idempotent.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		months TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('employee', 'manager', 'hr', 'admin')),
		manager_id TEXT REFERENCES employees(id) ON DELETE SET NULL,
		area TEXT NOT NULL DEFAULT '',
		entitlement INTEGER NOT NULL DEFAULT 30,
		location TEXT NOT NULL DEFAULT 'CUSCO',
		policy_id TEXT REFERENCES policies(id) ON DELETE SET NULL,
		can_request_own INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id);
	CREATE INDEX IF NOT EXISTS idx_employees_area ON employees(area);

	CREATE TABLE IF NOT EXISTS vacation_periods (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days INTEGER NOT NULL,
		type_period INTEGER NOT NULL CHECK (type_period IN (7, 8, 15, 30)),
		status TEXT NOT NULL,
		attachment TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date >= start_date)
	);

	-- Hot path: balance, overlap and limiter all read one employee's periods
	CREATE INDEX IF NOT EXISTS idx_periods_employee_start
		ON vacation_periods(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_periods_status ON vacation_periods(status);

	CREATE TABLE IF NOT EXISTS modification_requests (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL REFERENCES vacation_periods(id) ON DELETE CASCADE,
		requested_by TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		attachment TEXT,
		new_start TEXT NOT NULL,
		new_end TEXT NOT NULL,
		new_days INTEGER NOT NULL,
		new_type_period INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_modifications_period ON modification_requests(period_id);

	CREATE TABLE IF NOT EXISTS suspension_requests (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL REFERENCES vacation_periods(id) ON DELETE CASCADE,
		requested_by TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		attachment TEXT,
		suspension_type TEXT NOT NULL CHECK (suspension_type IN ('total', 'parcial')),
		new_end TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_suspensions_period ON suspension_requests(period_id);

	-- Append-only: rows leave only through the period cascade
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT NOT NULL UNIQUE,
		period_id TEXT NOT NULL REFERENCES vacation_periods(id) ON DELETE CASCADE,
		actor_id TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_period ON audit_log(period_id);

	CREATE TRIGGER IF NOT EXISTS audit_log_append_only
		BEFORE UPDATE ON audit_log
	BEGIN
		SELECT RAISE(ABORT, 'audit_log is append-only');
	END;

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT 'GENERAL',
		UNIQUE (date, location, name)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	for k, v := range s.defaults.Settings() {
		if _, err := s.db.Exec("INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (vacation.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(vacation.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&repo{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// ResetRequests deletes every period together with its history and change
// requests. Employees, policies, holidays and settings are kept.
// Returns the number of periods removed.
func (s *Store) ResetRequests(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"audit_log", "suspension_requests", "modification_requests"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, fmt.Errorf("reset %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM vacation_periods")
	if err != nil {
		return 0, fmt.Errorf("reset vacation_periods: %w", err)
	}
	removed, _ := res.RowsAffected()
	return removed, tx.Commit()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
