// Package store owns restaurant snapshots: the reducer that applies commands,
// the per-restaurant writer session, and the persistence interface.
package store

import (
	"context"
	"time"

	"github.com/warp/cost-ledger/ledger"
)

// =============================================================================
// PERSISTER - Whole-snapshot storage, last write wins
// =============================================================================

// Persister loads and saves one snapshot per restaurant. Load returns
// (nil, nil) when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context, restaurantID string) (*ledger.Snapshot, error)
	Save(ctx context.Context, restaurantID string, snap *ledger.Snapshot) error
}

// Lister is implemented by persisters that can enumerate stored restaurants.
type Lister interface {
	Restaurants(ctx context.Context) ([]string, error)
}

// =============================================================================
// SCAN RUNS - Anomaly scanner bookkeeping
// =============================================================================

// ScanRun records one anomaly scan of one restaurant.
type ScanRun struct {
	ID           string     `json:"id"`
	RestaurantID string     `json:"restaurantId"`
	Version      int64      `json:"version"`
	Products     int        `json:"products"`
	Anomalies    int        `json:"anomalies"`
	Warnings     int        `json:"warnings"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

const (
	ScanCompleted = "completed"
	ScanFailed    = "failed"
)

// ScanRecorder is implemented by persisters that keep scan history.
type ScanRecorder interface {
	SaveScanRun(ctx context.Context, run ScanRun) error
	ScanRuns(ctx context.Context, restaurantID string, limit int) ([]ScanRun, error)
}
