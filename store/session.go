package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/cost-ledger/ledger"
)

// =============================================================================
// SESSION - One writer goroutine per restaurant
// =============================================================================

// queueTimeout bounds how long a caller waits for the loop to accept a request.
const queueTimeout = 5 * time.Second

// saveTimeout bounds one persist of an accepted command.
const saveTimeout = 30 * time.Second

type commandRequest struct {
	ctx   context.Context
	cmd   Command
	reply chan commandResult
}

type commandResult struct {
	snap *ledger.Snapshot
	err  error
}

type snapshotRequest struct {
	reply chan *ledger.Snapshot
}

// Session serializes every write to one restaurant through a single
// goroutine. Each command is applied and persisted before the next one
// starts, so writes never interleave. Reads get the current snapshot, which
// is immutable once published.
type Session struct {
	restaurantID string
	persister    Persister
	log          zerolog.Logger

	current *ledger.Snapshot

	commands  chan commandRequest
	snapshots chan snapshotRequest
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// OpenSession loads the restaurant's snapshot and starts its loop. A
// restaurant with nothing stored starts from an empty snapshot.
func OpenSession(ctx context.Context, restaurantID string, persister Persister, log zerolog.Logger) (*Session, error) {
	if restaurantID == "" {
		return nil, ErrInvalidRestaurant
	}
	snap, err := persister.Load(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load restaurant %s: %w", restaurantID, err)
	}
	if snap == nil {
		snap = &ledger.Snapshot{}
	}

	s := &Session{
		restaurantID: restaurantID,
		persister:    persister,
		log:          log.With().Str("restaurant", restaurantID).Logger(),
		current:      snap,
		commands:     make(chan commandRequest),
		snapshots:    make(chan snapshotRequest),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go s.loop()
	s.log.Debug().Int64("version", snap.Version).Msg("session opened")
	return s, nil
}

func (s *Session) RestaurantID() string { return s.restaurantID }

// loop owns s.current; nothing else touches it.
func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case req := <-s.commands:
			next, err := s.execute(req.ctx, req.cmd)
			req.reply <- commandResult{snap: next, err: err}
		case req := <-s.snapshots:
			req.reply <- s.current
		case <-s.quit:
			return
		}
	}
}

func (s *Session) execute(ctx context.Context, cmd Command) (*ledger.Snapshot, error) {
	next, err := Apply(s.current, cmd)
	if err != nil {
		return nil, err
	}
	// an accepted command is saved even if the caller has gone away
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.persister.Save(saveCtx, s.restaurantID, next); err != nil {
		s.log.Error().Err(err).Str("command", cmd.CommandName()).Msg("persist failed")
		return nil, fmt.Errorf("save restaurant %s: %w", s.restaurantID, err)
	}
	s.current = next
	s.log.Debug().
		Str("command", cmd.CommandName()).
		Int64("version", next.Version).
		Msg("command applied")
	return next, nil
}

// Execute applies cmd and persists the result. It returns the new snapshot.
// Once the loop accepts the command it is applied and saved even if ctx
// ends; the caller then gets ctx.Err() but the write stands.
func (s *Session) Execute(ctx context.Context, cmd Command) (*ledger.Snapshot, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	// buffered so the loop never blocks on a caller that gave up
	reply := make(chan commandResult, 1)
	req := commandRequest{ctx: ctx, cmd: cmd, reply: reply}

	select {
	case s.commands <- req:
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(queueTimeout):
		return nil, ErrSessionBusy
	}

	select {
	case res := <-reply:
		return res.snap, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot returns the current snapshot. Callers must treat it as read-only.
func (s *Session) Snapshot(ctx context.Context) (*ledger.Snapshot, error) {
	reply := make(chan *ledger.Snapshot, 1)

	select {
	case s.snapshots <- snapshotRequest{reply: reply}:
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(queueTimeout):
		return nil, ErrSessionBusy
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the loop after any in-flight command finishes.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}
