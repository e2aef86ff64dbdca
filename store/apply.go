package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/cost-ledger/ledger"
)

// =============================================================================
// REDUCER - (snapshot, command) -> snapshot
// =============================================================================

// Apply returns a new snapshot with cmd applied. The input is never mutated,
// so readers holding it keep a consistent view. On error the input is still
// the current state.
func Apply(snap *ledger.Snapshot, cmd Command) (*ledger.Snapshot, error) {
	return ApplyAt(snap, cmd, time.Now())
}

// ApplyAt is Apply with an explicit clock; commands without a date are
// dated on now's calendar day.
func ApplyAt(snap *ledger.Snapshot, cmd Command, now time.Time) (*ledger.Snapshot, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	e := &env{
		now:   ledger.NewTimePointAt(now),
		newID: uuid.NewString,
	}

	next := snap.Clone()
	if err := cmd.apply(next, e); err != nil {
		return nil, err
	}
	next.Version++
	next.UpdatedAt = e.now
	return next, nil
}
