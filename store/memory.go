package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/cost-ledger/ledger"
)

// =============================================================================
// MEMORY PERSISTER - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	snapshots map[string]*ledger.Snapshot
	runs      []ScanRun
	saves     int
}

func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[string]*ledger.Snapshot),
	}
}

// Load returns a copy so callers can't reach the stored value.
func (m *Memory) Load(_ context.Context, restaurantID string) (*ledger.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[restaurantID]
	if !ok {
		return nil, nil
	}
	return snap.Clone(), nil
}

// Save replaces the stored snapshot. Last write wins.
func (m *Memory) Save(_ context.Context, restaurantID string, snap *ledger.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[restaurantID] = snap.Clone()
	m.saves++
	return nil
}

func (m *Memory) Restaurants(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Saves counts successful Save calls.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// =============================================================================
// SCAN RUNS
// =============================================================================

func (m *Memory) SaveScanRun(_ context.Context, run ScanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// ScanRuns returns the newest runs first. An empty restaurantID matches all.
func (m *Memory) ScanRuns(_ context.Context, restaurantID string, limit int) ([]ScanRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ScanRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if restaurantID != "" && m.runs[i].RestaurantID != restaurantID {
			continue
		}
		out = append(out, m.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
