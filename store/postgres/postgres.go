/*
Package postgres provides a PostgreSQL restaurant snapshot persister.

PURPOSE:
  Same contract as store/sqlite, for deployments that already run Postgres.
  Each restaurant is one row holding its snapshot as JSONB.

USAGE:
  db, err := postgres.New(ctx, os.Getenv("DATABASE_URL"))
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()

SEE ALSO:
  - store/sqlite/sqlite.go: single-node equivalent
*/
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/cost-ledger/ledger"
)

// Store persists restaurant snapshots in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and creates the schema if needed.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres: DATABASE_URL not set")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS restaurants (
			id TEXT PRIMARY KEY,
			version BIGINT NOT NULL,
			snapshot JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Load returns (nil, nil) for a restaurant that has never been saved.
func (s *Store) Load(ctx context.Context, restaurantID string) (*ledger.Snapshot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM restaurants WHERE id = $1`, restaurantID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", restaurantID, err)
	}
	return &snap, nil
}

func (s *Store) Save(ctx context.Context, restaurantID string, snap *ledger.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", restaurantID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO restaurants (id, version, snapshot, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			version = EXCLUDED.version,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at
	`, restaurantID, snap.Version, raw)
	return err
}

func (s *Store) Restaurants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM restaurants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
