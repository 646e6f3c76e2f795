package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 2

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS tokens (
		token       TEXT PRIMARY KEY,
		user_id     INTEGER NOT NULL REFERENCES users(id),
		expires_at  TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS settings (
		user_id INTEGER NOT NULL REFERENCES users(id),
		key     TEXT NOT NULL,
		value   TEXT NOT NULL,
		PRIMARY KEY (user_id, key)
	);

	CREATE TABLE IF NOT EXISTS daily_records (
		id                            INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id                       INTEGER NOT NULL REFERENCES users(id),
		date                          TEXT NOT NULL,
		real_wake_time                TEXT,
		real_sleep_time               TEXT,
		virtual_wake_time             TEXT,
		virtual_sleep_time            TEXT,
		virtual_wake_time_display     TEXT NOT NULL DEFAULT '',
		virtual_sleep_time_display    TEXT NOT NULL DEFAULT '',
		expected_sleep_time           TEXT,
		target_entertainment_hours    REAL NOT NULL DEFAULT 0,
		target_study_hours            REAL NOT NULL DEFAULT 0,
		actual_entertainment_minutes  REAL NOT NULL DEFAULT 0,
		actual_study_minutes          REAL NOT NULL DEFAULT 0,
		actual_rest_minutes           REAL NOT NULL DEFAULT 0,
		virtual_entertainment_minutes REAL NOT NULL DEFAULT 0,
		virtual_study_minutes         REAL NOT NULL DEFAULT 0,
		virtual_rest_minutes          REAL NOT NULL DEFAULT 0,
		entertainment_multiplier      REAL NOT NULL DEFAULT 0,
		status                        TEXT NOT NULL DEFAULT 'pending',
		created_at                    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at                    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(user_id, date)
	);

	CREATE TABLE IF NOT EXISTS time_logs (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id              INTEGER NOT NULL REFERENCES users(id),
		daily_record_id      INTEGER NOT NULL REFERENCES daily_records(id),
		real_timestamp       TEXT NOT NULL,
		virtual_timestamp    TEXT NOT NULL,
		virtual_time_display TEXT NOT NULL DEFAULT '',
		activity_type        TEXT NOT NULL,
		next_activity        TEXT NOT NULL DEFAULT '',
		speed_multiplier     REAL NOT NULL DEFAULT 1.0,
		duration_seconds     INTEGER NOT NULL DEFAULT 0,
		app_name             TEXT NOT NULL DEFAULT '',
		notes                TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_time_logs_record ON time_logs(daily_record_id, real_timestamp);

	CREATE TABLE IF NOT EXISTS pomodoro_sessions (
		id                       INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id                  INTEGER NOT NULL REFERENCES users(id),
		daily_record_id          INTEGER NOT NULL REFERENCES daily_records(id),
		start_time               TEXT NOT NULL,
		end_time                 TEXT,
		planned_duration_minutes INTEGER NOT NULL,
		actual_duration_minutes  INTEGER NOT NULL DEFAULT 0,
		session_type             TEXT NOT NULL DEFAULT 'work',
		virtual_start_time       TEXT,
		virtual_end_time         TEXT,
		status                   TEXT NOT NULL DEFAULT 'running',
		notes                    TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS ai_summaries (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER NOT NULL REFERENCES users(id),
		summary_type TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end   TEXT NOT NULL,
		summary_text TEXT NOT NULL,
		source_data  TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS devices (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL REFERENCES users(id),
		device_id   TEXT NOT NULL,
		device_name TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL DEFAULT '',
		last_active TEXT NOT NULL,
		UNIQUE(user_id, device_id)
	);

	CREATE TABLE IF NOT EXISTS app_usage_logs (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id          INTEGER NOT NULL REFERENCES users(id),
		device_id        TEXT NOT NULL,
		app_package      TEXT NOT NULL,
		app_name         TEXT NOT NULL DEFAULT '',
		start_time       TEXT NOT NULL,
		end_time         TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		activity_type    TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// migrateV2 stores the engine configuration a day was started with.
func (s *Store) migrateV2() error {
	_, err := s.db.Exec(`ALTER TABLE daily_records ADD COLUMN engine_config TEXT NOT NULL DEFAULT ''`)
	return err
}

// DefaultDBPath returns ~/.config/timesetor/timesetor.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "timesetor", "timesetor.db"), nil
}

// formatTime keeps the zone offset so local dates survive a round trip.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
