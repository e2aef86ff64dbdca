/*
timeline.go - Stock replay for one product

PURPOSE:
  Rebuilds a product's stock level after every sale, delivery and stocktake
  by replaying derived events against a baseline. There is no stored running
  balance the engine trusts: InventoryItem.CurrentStock is a cache, this is
  the source of truth.

ALGORITHM:
  1. baseline = Product.InitialQuantity (or Product.Quantity if unset)
  2. collect restock, reset and sale events (price changes don't move stock)
  3. sort by (date, kind priority, seq)
  4. replay: sale subtracts, restock adds, reset overwrites
  5. emit one TimelineEvent per step with the post-event balance; no clamping
  6. match manual restock/reset stock-history records back to their steps
     to build the restock log

ORDERING:
  Same-instant events sort reset -> restock -> sale, then by position in
  their source list. Sorting is stable over a fixed input order, so replaying
  the same snapshot twice gives identical output.

EXAMPLE:
  baseline 20, sale 2 on Jan 5, restock 12 on Jan 10, sale 3 on Jan 15
    20 -> 18 -> 30 -> 27

SEE ALSO:
  - events.go: event derivation
  - cost.go: the cost side of the same histories
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIMELINE
// =============================================================================

// RestockLogEntry is a manual restock or reset as the user recorded it,
// paired with the replayed step it corresponds to.
type RestockLogEntry struct {
	Date     TimePoint       `json:"date"`
	Source   StockSource     `json:"source"`
	Amount   decimal.Decimal `json:"amount"`
	Recorded decimal.Decimal `json:"recordedStock"`
	Info     string          `json:"info,omitempty"`

	// Matched is false when no replayed step fits the record (edited or
	// orphaned history). Replayed and EventIndex are only set when matched.
	Matched    bool            `json:"matched"`
	Replayed   decimal.Decimal `json:"replayedStock"`
	EventIndex int             `json:"eventIndex"`
}

type Timeline struct {
	ProductID  ProductID         `json:"productId"`
	Baseline   decimal.Decimal   `json:"baseline"`
	Events     []TimelineEvent   `json:"events"`
	RestockLog []RestockLogEntry `json:"restockLog"`
}

// Final is the balance after the last event.
func (t Timeline) Final() decimal.Decimal {
	if len(t.Events) == 0 {
		return t.Baseline
	}
	return t.Events[len(t.Events)-1].Stock
}

// StockAt is the balance after every event on or before at.
func (t Timeline) StockAt(at TimePoint) decimal.Decimal {
	stock := t.Baseline
	for _, e := range t.Events {
		if e.Date.After(at) {
			break
		}
		stock = e.Stock
	}
	return stock
}

// Anomalies returns the steps that left stock negative (over-selling).
func (t Timeline) Anomalies() []TimelineEvent {
	var out []TimelineEvent
	for _, e := range t.Events {
		if e.Stock.IsNegative() {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// REPLAY
// =============================================================================

// ReconstructTimeline replays one product's stock history from the snapshot.
// Returns ErrProductNotFound if the product isn't in the snapshot.
func ReconstructTimeline(productID ProductID, snap *Snapshot, opts ...Option) (Timeline, error) {
	return ReconstructTimelineIndexed(NewIndex(snap), productID, opts...)
}

// ReconstructTimelineIndexed is ReconstructTimeline over a prebuilt index,
// for callers replaying many products from the same snapshot.
func ReconstructTimelineIndexed(idx *Index, productID ProductID, opts ...Option) (Timeline, error) {
	p, ok := idx.Product(productID)
	if !ok {
		return Timeline{}, ErrProductNotFound
	}
	item, _ := idx.Inventory(productID)

	var events []Event
	events = append(events, RestockEvents(p)...)
	events = append(events, ResetEvents(item)...)
	events = append(events, SaleDepletionEvents(idx, productID, opts...)...)
	SortEvents(events)

	tl := Timeline{
		ProductID: productID,
		Baseline:  p.Baseline(),
		Events:    make([]TimelineEvent, 0, len(events)),
	}

	balance := tl.Baseline
	for _, e := range events {
		var delta decimal.Decimal
		switch e.Kind {
		case EventSale:
			delta = e.Amount.Neg()
			balance = balance.Add(delta)
		case EventRestock:
			delta = e.Amount
			balance = balance.Add(delta)
		case EventReset:
			// absolute override: the pre-reset balance is discarded
			delta = e.Amount
			balance = e.Amount
		default:
			continue
		}
		tl.Events = append(tl.Events, TimelineEvent{
			Date:   e.Date,
			Stock:  balance,
			Type:   e.Kind,
			Source: e.Kind.Source(),
			Amount: delta,
			Info:   e.Info,
		})
	}

	tl.RestockLog = buildRestockLog(item, p, tl.Events)
	return tl, nil
}

// SortEvents orders events by (date, kind priority, seq) in place.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if pa, pb := a.Kind.Priority(), b.Kind.Priority(); pa != pb {
			return pa < pb
		}
		return a.Seq < b.Seq
	})
}

// =============================================================================
// RESTOCK LOG
// =============================================================================

// buildRestockLog pairs each manual-restock/reset stock-history record with
// the first unused replayed step of the same kind, on the same calendar day,
// with the same amount. Records are visited in the order they were written.
//
// Restock records without an explicit Amount are matched against the
// product's restock history in order, since that is where the delta lives.
func buildRestockLog(item *InventoryItem, p *Product, events []TimelineEvent) []RestockLogEntry {
	if item == nil {
		return nil
	}
	used := make([]bool, len(events))
	restockCursor := 0
	var log []RestockLogEntry

	for _, rec := range item.StockHistory {
		var kind EventKind
		var amount decimal.Decimal
		switch rec.Source {
		case SourceManualRestock:
			kind = EventRestock
			switch {
			case rec.Amount != nil:
				amount = *rec.Amount
			case restockCursor < len(p.RestockHistory):
				amount = p.RestockHistory[restockCursor].Quantity
			}
			restockCursor++
		case SourceReset:
			kind = EventReset
			amount = rec.Stock
		default:
			continue
		}

		entry := RestockLogEntry{
			Date:       rec.Date,
			Source:     rec.Source,
			Amount:     amount,
			Recorded:   rec.Stock,
			Info:       rec.Info,
			EventIndex: -1,
		}
		for i, ev := range events {
			if used[i] || ev.Type != kind || !ev.Date.SameDay(rec.Date) || !ev.Amount.Equal(amount) {
				continue
			}
			used[i] = true
			entry.Matched = true
			entry.Replayed = ev.Stock
			entry.EventIndex = i
			break
		}
		log = append(log, entry)
	}
	return log
}
