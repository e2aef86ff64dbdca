/*
events.go - Stored records -> canonical ledger events

PURPOSE:
  A product's history is scattered over four differently-shaped lists:
    Product.PriceHistory     -> price change events
    Product.RestockHistory   -> restock events
    InventoryItem.StockHistory (source=reset) -> reset events
    Snapshot.Sales x Recipe.Ingredients       -> sale depletion events
  This file turns each into the same Event shape. It does not sort or
  replay anything; timeline.go and cost.go do that.

MISSING REFERENCES:
  A sale whose recipe can't be found, or an ingredient whose product can't be
  found, contributes nothing. With WithDiagnostics the skip is recorded.

SEQUENCE NUMBERS:
  Every event carries Seq, its position in the list it came from. Together
  with Kind.Priority() it gives replay a deterministic same-day order.
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// EVENT KINDS
// =============================================================================

type EventKind string

const (
	EventPriceChange EventKind = "price_change"
	EventRestock     EventKind = "restock"
	EventReset       EventKind = "reset"
	EventSale        EventKind = "sale"
)

// Priority orders same-instant events: a stocktake reset is counted first,
// deliveries land next, service depletes last.
func (k EventKind) Priority() int {
	switch k {
	case EventReset:
		return 0
	case EventRestock:
		return 1
	case EventSale:
		return 2
	default:
		return 3
	}
}

// Source maps an event kind to the stock-history source it is recorded under.
func (k EventKind) Source() StockSource {
	switch k {
	case EventReset:
		return SourceReset
	case EventRestock:
		return SourceManualRestock
	default:
		return SourceSale
	}
}

// =============================================================================
// EVENT
// =============================================================================

// Event is one derived ledger event for a single product.
//
// Amount meaning depends on Kind:
//   - restock: units added (positive)
//   - reset:   absolute stock after the reset
//   - sale:    units depleted (positive; replay subtracts it)
//   - price:   unused (zero)
type Event struct {
	Kind      EventKind
	ProductID ProductID
	Date      TimePoint
	Seq       int

	Amount decimal.Decimal

	// Cost side (price changes and restocks)
	Cost        decimal.Decimal
	PackageSize *decimal.Decimal
	Quantity    *decimal.Decimal

	// Sale provenance
	SaleID   SaleID
	RecipeID RecipeID

	Info string
}

// =============================================================================
// DERIVATION
// =============================================================================

// PriceChangeEvents returns one event per price history entry, in insertion order.
func PriceChangeEvents(p *Product) []Event {
	events := make([]Event, 0, len(p.PriceHistory))
	for i, e := range p.PriceHistory {
		events = append(events, Event{
			Kind:        EventPriceChange,
			ProductID:   p.ID,
			Date:        e.Date,
			Seq:         i,
			Cost:        e.Price,
			PackageSize: e.PackageSize,
			Quantity:    e.Quantity,
		})
	}
	return events
}

// RestockEvents returns one event per restock history entry, in insertion order.
func RestockEvents(p *Product) []Event {
	events := make([]Event, 0, len(p.RestockHistory))
	for i, e := range p.RestockHistory {
		events = append(events, Event{
			Kind:      EventRestock,
			ProductID: p.ID,
			Date:      e.Date,
			Seq:       i,
			Amount:    e.Quantity,
			Cost:      e.Cost,
		})
	}
	return events
}

// ResetEvents returns one event per reset entry in the item's stock history.
// Seq is the position in the full stock history.
func ResetEvents(item *InventoryItem) []Event {
	if item == nil {
		return nil
	}
	var events []Event
	for i, e := range item.StockHistory {
		if e.Source != SourceReset {
			continue
		}
		events = append(events, Event{
			Kind:      EventReset,
			ProductID: item.ProductID,
			Date:      e.Date,
			Seq:       i,
			Amount:    e.Stock,
			Info:      e.Info,
		})
	}
	return events
}

// SaleDepletionEvents returns, for every sale, one event per ingredient of
// the sale's recipe that uses productID. Depletion = ingredient qty x servings.
func SaleDepletionEvents(idx *Index, productID ProductID, opts ...Option) []Event {
	o := buildOptions(opts)
	var events []Event
	seq := 0
	for _, sale := range idx.Snapshot().Sales {
		recipe, ok := idx.RecipeForSale(sale)
		if !ok {
			o.diag.missingRecipe(sale)
			continue
		}
		for _, ing := range recipe.Ingredients {
			if ing.ProductID != productID {
				continue
			}
			events = append(events, Event{
				Kind:      EventSale,
				ProductID: productID,
				Date:      sale.Date,
				Seq:       seq,
				Amount:    ing.Quantity.Mul(sale.Quantity),
				SaleID:    sale.ID,
				RecipeID:  recipe.ID,
				Info:      recipe.Name,
			})
			seq++
		}
	}
	return events
}

// DeriveEvents returns every event kind for one product, unordered.
func DeriveEvents(idx *Index, productID ProductID, opts ...Option) ([]Event, error) {
	p, ok := idx.Product(productID)
	if !ok {
		return nil, ErrProductNotFound
	}
	item, _ := idx.Inventory(productID)

	var events []Event
	events = append(events, PriceChangeEvents(p)...)
	events = append(events, RestockEvents(p)...)
	events = append(events, ResetEvents(item)...)
	events = append(events, SaleDepletionEvents(idx, productID, opts...)...)
	return events, nil
}
