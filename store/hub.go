package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/warp/cost-ledger/ledger"
)

// =============================================================================
// HUB - Open sessions by restaurant
// =============================================================================

// Hub opens sessions lazily and keeps at most one per restaurant, which is
// what keeps each restaurant single-writer within this process.
type Hub struct {
	persister Persister
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewHub(persister Persister, log zerolog.Logger) *Hub {
	return &Hub{
		persister: persister,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

// Session returns the restaurant's session, opening it on first use.
func (h *Hub) Session(ctx context.Context, restaurantID string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[restaurantID]; ok {
		return s, nil
	}
	s, err := OpenSession(ctx, restaurantID, h.persister, h.log)
	if err != nil {
		return nil, err
	}
	h.sessions[restaurantID] = s
	return s, nil
}

// Snapshot returns the restaurant's current snapshot. A restaurant with no
// open session and nothing stored reads as empty and gets no session, so
// reads of arbitrary ids do not pin goroutines.
func (h *Hub) Snapshot(ctx context.Context, restaurantID string) (*ledger.Snapshot, error) {
	if restaurantID == "" {
		return nil, ErrInvalidRestaurant
	}
	h.mu.Lock()
	s, ok := h.sessions[restaurantID]
	h.mu.Unlock()

	if !ok {
		stored, err := h.persister.Load(ctx, restaurantID)
		if err != nil {
			return nil, fmt.Errorf("load restaurant %s: %w", restaurantID, err)
		}
		if stored == nil {
			return &ledger.Snapshot{}, nil
		}
		if s, err = h.Session(ctx, restaurantID); err != nil {
			return nil, err
		}
	}
	return s.Snapshot(ctx)
}

// List returns the ids of open sessions, sorted.
func (h *Hub) List() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Known returns every restaurant the hub can see: open sessions plus, when
// the persister supports it, everything stored.
func (h *Hub) Known(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, id := range h.List() {
		seen[id] = true
	}
	if l, ok := h.persister.(Lister); ok {
		stored, err := l.Restaurants(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range stored {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close stops every session.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.sessions {
		s.Close()
		delete(h.sessions, id)
	}
}
