/*
Package sqlite provides a SQLite-backed restaurant snapshot persister.

PURPOSE:
  Stores each restaurant's whole snapshot as one JSON row. This is the
  default persister for a single-node deployment.

KEY TABLES:
  restaurants: one row per restaurant, snapshot_json replaced on every save
  scan_runs:   anomaly scanner history

LAST WRITE WINS:
  Save is an upsert of the whole document. Two processes writing the same
  restaurant overwrite each other; the version column only reports which
  write landed.

CONNECTIONS:
  The pool is capped at one connection. ":memory:" databases are
  per-connection, and the session layer already serializes writes per
  restaurant.

USAGE:
  db, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()
  hub := store.NewHub(db, logger)

SEE ALSO:
  - store/store.go: Persister interface
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/cost-ledger/ledger"
	"github.com/warp/cost-ledger/store"
)

// Store persists restaurant snapshots in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS restaurants (
		id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		snapshot_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_runs (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		products INTEGER NOT NULL,
		anomalies INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scan_runs_restaurant
		ON scan_runs(restaurant_id, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Load returns (nil, nil) for a restaurant that has never been saved.
func (s *Store) Load(ctx context.Context, restaurantID string) (*ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot_json FROM restaurants WHERE id = ?`, restaurantID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", restaurantID, err)
	}
	return &snap, nil
}

func (s *Store) Save(ctx context.Context, restaurantID string, snap *ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", restaurantID, err)
	}

	query := `
		INSERT INTO restaurants (id, version, snapshot_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			snapshot_json = excluded.snapshot_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		restaurantID, snap.Version, string(raw),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Restaurants lists stored restaurant ids, sorted.
func (s *Store) Restaurants(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM restaurants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// SCAN RUNS
// =============================================================================

func (s *Store) SaveScanRun(ctx context.Context, r store.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO scan_runs (id, restaurant_id, version, products, anomalies,
			warnings, status, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		c := r.CompletedAt.UTC().Format(time.RFC3339Nano)
		completedAt = &c
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.RestaurantID, r.Version, r.Products, r.Anomalies,
		r.Warnings, r.Status, nullString(r.Error),
		r.StartedAt.UTC().Format(time.RFC3339Nano), completedAt,
	)
	return err
}

// ScanRuns returns the newest runs first. An empty restaurantID matches all.
func (s *Store) ScanRuns(ctx context.Context, restaurantID string, limit int) ([]store.ScanRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, restaurant_id, version, products, anomalies, warnings,
			status, error, started_at, completed_at
		FROM scan_runs
		WHERE (? = '' OR restaurant_id = ?)
		ORDER BY started_at DESC
	`
	args := []any{restaurantID, restaurantID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.ScanRun
	for rows.Next() {
		var r store.ScanRun
		var errText, completedAt sql.NullString
		var startedAt string
		if err := rows.Scan(
			&r.ID, &r.RestaurantID, &r.Version, &r.Products, &r.Anomalies, &r.Warnings,
			&r.Status, &errText, &startedAt, &completedAt,
		); err != nil {
			return nil, err
		}
		r.Error = errText.String
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"restaurants", "scan_runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
