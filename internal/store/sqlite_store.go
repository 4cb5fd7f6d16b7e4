package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sschoell/pismprof/internal/models"
)

// schemaVersion is bumped whenever the run table layout changes; older
// databases are wiped rather than migrated.
const schemaVersion = 2

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID        int64
	Source    string
	Path      string
	LoadedAt  time.Time
	NumProcs  int
	TotalTime float64
}

// Store is the persistence surface the server needs; *SQLiteStore implements
// it, and the server tolerates a nil store (history pages are just empty).
type Store interface {
	SaveRun(path string, report *models.Report) (int64, error)
	ListRuns(limit int) ([]RunSummary, error)
	GetReport(id int64) (*models.Report, error)
	Close() error
}

type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the run history database. When clean is
// set, or the existing database has a stale schema, the file is removed and
// recreated.
func NewSQLiteStore(dbPath string, clean bool) (*SQLiteStore, error) {
	if clean || shouldWipeDB(dbPath) {
		slog.Info("Creating fresh run database", "db", dbPath)
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove old database: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			slog.Warn("Failed to set pragma", "pragma", p, "error", err)
		}
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func shouldWipeDB(dbPath string) bool {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return false
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return true
	}
	defer func() { _ = db.Close() }()

	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	return err != nil || version < schemaVersion
}

func (s *SQLiteStore) initSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema initialization: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			path TEXT NOT NULL,
			loaded_at INTEGER NOT NULL,
			num_procs INTEGER NOT NULL,
			total_time REAL NOT NULL,
			report TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_loaded_at ON runs(loaded_at)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if _, err := tx.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

// SaveRun stores the computed report, replacing any earlier run loaded from
// the same path.
func (s *SQLiteStore) SaveRun(path string, report *models.Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	if _, err := s.db.Exec("DELETE FROM runs WHERE path = ?", path); err != nil {
		return 0, fmt.Errorf("failed to drop previous run for %s: %w", path, err)
	}
	res, err := s.db.Exec(
		"INSERT INTO runs (source, path, loaded_at, num_procs, total_time, report) VALUES (?, ?, ?, ?, ?, ?)",
		report.Source, path, time.Now().Unix(), report.NumProcs, report.TotalTime, string(blob))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recently loaded runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, source, path, loaded_at, num_procs, total_time FROM runs ORDER BY loaded_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var loadedAt int64
		if err := rows.Scan(&r.ID, &r.Source, &r.Path, &loadedAt, &r.NumProcs, &r.TotalTime); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.LoadedAt = time.Unix(loadedAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReport loads a stored report by run id.
func (s *SQLiteStore) GetReport(id int64) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var blob string
	err := s.db.QueryRow("SELECT report FROM runs WHERE id = ?", id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	var report models.Report
	if err := json.Unmarshal([]byte(blob), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report for run %d: %w", id, err)
	}
	return &report, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
