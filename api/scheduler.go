/*
scheduler.go - Background anomaly scanner

PURPOSE:
  Periodically replays every product of every known restaurant and records
  what the replay flagged: steps that left stock negative, restock records
  the replay could not match, and references the engine dropped (sales of
  deleted recipes, recipes using deleted products, zero package sizes).

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Runs once immediately on start
  - Reads snapshots through the hub, so scans never race a write
  - Records one ScanRun per restaurant when the persister keeps history

CONFIGURATION:
  - Interval: ANOMALY_SCAN_INTERVAL (0 disables the background loop)

USAGE:
  scanner := NewAnomalyScanner(hub, runs, log, time.Hour)
  scanner.Start()
  // ... later
  scanner.Stop()

SEE ALSO:
  - handlers.go: GetAnomalies (one restaurant), TriggerScan (manual run)
  - store/store.go: ScanRun, ScanRecorder
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/cost-ledger/ledger"
	"github.com/warp/cost-ledger/store"
)

// scanTimeout bounds one restaurant's scan, including the history write.
const scanTimeout = 30 * time.Second

// AnomalyScanner replays restaurants in the background.
type AnomalyScanner struct {
	Hub      *store.Hub
	Runs     store.ScanRecorder
	Log      zerolog.Logger
	Interval time.Duration

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAnomalyScanner creates a scanner. runs may be nil.
func NewAnomalyScanner(hub *store.Hub, runs store.ScanRecorder, log zerolog.Logger, interval time.Duration) *AnomalyScanner {
	return &AnomalyScanner{
		Hub:      hub,
		Runs:     runs,
		Log:      log.With().Str("component", "anomaly-scanner").Logger(),
		Interval: interval,
		now:      time.Now,
	}
}

// Start begins the background loop. A zero interval leaves it disabled.
func (s *AnomalyScanner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.Log.Info().Msg("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run()

	s.Log.Info().Dur("interval", s.Interval).Msg("started")
}

// Stop ends the loop and waits for an in-progress scan to finish.
func (s *AnomalyScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Log.Info().Msg("stopped")
}

func (s *AnomalyScanner) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.ScanOnce(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.ScanOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// ScanOnce scans every restaurant the hub knows about and returns one run per
// restaurant. A failure on one restaurant is recorded and the rest continue.
func (s *AnomalyScanner) ScanOnce(ctx context.Context) []store.ScanRun {
	ids, err := s.Hub.Known(ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("listing restaurants")
		return []store.ScanRun{}
	}

	runs := make([]store.ScanRun, 0, len(ids))
	flagged := 0
	for _, id := range ids {
		run := s.scanRestaurant(ctx, id)
		if run.Anomalies > 0 || run.Warnings > 0 {
			flagged++
		}
		runs = append(runs, run)
	}
	s.Log.Info().Int("restaurants", len(ids)).Int("flagged", flagged).Msg("scan complete")
	return runs
}

func (s *AnomalyScanner) scanRestaurant(parent context.Context, restaurantID string) store.ScanRun {
	ctx, cancel := context.WithTimeout(parent, scanTimeout)
	defer cancel()

	run := store.ScanRun{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		StartedAt:    s.now().UTC(),
	}

	report, err := s.report(ctx, restaurantID)
	completed := s.now().UTC()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = store.ScanFailed
		run.Error = err.Error()
		s.Log.Error().Err(err).Str("restaurant", restaurantID).Msg("scan failed")
	} else {
		run.Status = store.ScanCompleted
		run.Version = report.Version
		run.Products = report.Scanned
		run.Anomalies = report.Count()
		run.Warnings = len(report.Warnings)
		s.logReport(restaurantID, report)
	}

	if s.Runs != nil {
		if err := s.Runs.SaveScanRun(ctx, run); err != nil {
			s.Log.Error().Err(err).Str("restaurant", restaurantID).Msg("recording scan run")
		}
	}
	return run
}

func (s *AnomalyScanner) report(ctx context.Context, restaurantID string) (AnomalyReport, error) {
	snap, err := s.Hub.Snapshot(ctx, restaurantID)
	if err != nil {
		return AnomalyReport{}, err
	}
	return ScanSnapshot(snap), nil
}

func (s *AnomalyScanner) logReport(restaurantID string, report AnomalyReport) {
	for _, p := range report.Products {
		for _, e := range p.Negative {
			s.Log.Warn().
				Str("restaurant", restaurantID).
				Str("product", string(p.ProductID)).
				Str("date", e.Date.String()).
				Str("stock", e.Stock.String()).
				Msg("negative stock")
		}
		if len(p.Unmatched) > 0 {
			s.Log.Warn().
				Str("restaurant", restaurantID).
				Str("product", string(p.ProductID)).
				Int("records", len(p.Unmatched)).
				Msg("restock records not matched by replay")
		}
	}
	for _, w := range report.Warnings {
		s.Log.Warn().Str("restaurant", restaurantID).Str("kind", string(w.Kind)).Msg(w.Message)
	}
}

// =============================================================================
// SNAPSHOT SCAN
// =============================================================================

// ScanSnapshot replays every product and costs every sale, collecting what
// the engine flagged or silently dropped.
func ScanSnapshot(snap *ledger.Snapshot) AnomalyReport {
	diag := ledger.NewDiagnostics(true)
	idx := ledger.NewIndex(snap)

	report := AnomalyReport{
		Version:  snap.Version,
		Products: []ProductAnomalies{},
	}
	for i := range snap.Products {
		p := &snap.Products[i]
		tl, err := ledger.ReconstructTimelineIndexed(idx, p.ID, ledger.WithDiagnostics(diag))
		if err != nil {
			continue
		}
		report.Scanned++

		pa := ProductAnomalies{ProductID: p.ID, Name: p.Name, Negative: tl.Anomalies()}
		for _, entry := range tl.RestockLog {
			if !entry.Matched {
				pa.Unmatched = append(pa.Unmatched, entry)
			}
		}
		if len(pa.Negative) > 0 || len(pa.Unmatched) > 0 {
			report.Products = append(report.Products, pa)
		}
	}

	// costing every sale surfaces missing recipes and products
	ledger.ComputeDailyCOGS(snap, ledger.WithDiagnostics(diag))
	report.Warnings = nonNil(diag.Warnings())
	return report
}
