/*
cost.go - Point-in-time cost resolution

PURPOSE:
  Answers "what did one unit of this product cost on date D?" for historical
  costing. The current Product.Cost is only the answer when nothing in the
  histories applies yet.

CANDIDATES:
  P = latest PriceHistory entry with P.Date <= D (ties: later insertion)
  R = latest RestockHistory entry with R.Date <= D (ties: later insertion)

AUTHORITY:
  neither          -> product Cost / PackageSize / Quantity
  only P, or P >= R -> P.Price, P's package metadata when positive
  R newer than P   -> R.Cost, package metadata from P when positive,
                      otherwise product defaults (restocks carry none)

UNIT COST:
  unitCost = cost / (quantity x packageSize), divisor <= 0 replaced by 1.

EXAMPLE:
  price 2024-01-01 $4.00 (pkg 1, qty 1), restock 2024-01-10 $4.20
    resolve 2024-01-05 -> 4.00
    resolve 2024-01-15 -> 4.20
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// CostSource says which record won.
type CostSource string

const (
	CostFromCurrent CostSource = "current"
	CostFromPrice   CostSource = "price_history"
	CostFromRestock CostSource = "restock_history"
)

// ResolvedCost is the cost basis authoritative on a date.
type ResolvedCost struct {
	UnitCost    decimal.Decimal `json:"unitCost"`
	Cost        decimal.Decimal `json:"cost"`
	PackageSize decimal.Decimal `json:"packageSize"`
	Quantity    decimal.Decimal `json:"quantity"`
	Source      CostSource      `json:"source"`
	SourceDate  TimePoint       `json:"sourceDate"`

	// Degenerate is set when quantity x packageSize was unusable and 1 was
	// used as the divisor instead.
	Degenerate bool `json:"degenerate,omitempty"`
}

// ResolveCostAsOf resolves the product's cost basis on the given date.
func ResolveCostAsOf(p *Product, at TimePoint, opts ...Option) ResolvedCost {
	o := buildOptions(opts)

	price, hasPrice := latestPriceAsOf(p.PriceHistory, at)
	restock, hasRestock := latestRestockAsOf(p.RestockHistory, at)

	rc := ResolvedCost{
		Cost:        p.Cost,
		PackageSize: p.PackageSize,
		Quantity:    p.Quantity,
		Source:      CostFromCurrent,
	}

	// package metadata from the price entry applies to either winner
	if hasPrice {
		if positive(price.PackageSize) {
			rc.PackageSize = *price.PackageSize
		}
		if positive(price.Quantity) {
			rc.Quantity = *price.Quantity
		}
	}

	switch {
	case hasRestock && (!hasPrice || restock.Date.After(price.Date)):
		rc.Cost = restock.Cost
		rc.Source = CostFromRestock
		rc.SourceDate = restock.Date
	case hasPrice:
		rc.Cost = price.Price
		rc.Source = CostFromPrice
		rc.SourceDate = price.Date
	}

	divisor := rc.Quantity.Mul(rc.PackageSize)
	if !divisor.IsPositive() {
		divisor = decimal.NewFromInt(1)
		rc.Degenerate = true
		o.diag.degenerateDivisor(p, at)
	}
	rc.UnitCost = rc.Cost.Div(divisor)
	return rc
}

// UnitCostAsOf is ResolveCostAsOf(...).UnitCost.
func UnitCostAsOf(p *Product, at TimePoint, opts ...Option) decimal.Decimal {
	return ResolveCostAsOf(p, at, opts...).UnitCost
}

func latestPriceAsOf(history []PriceEntry, at TimePoint) (PriceEntry, bool) {
	var best PriceEntry
	found := false
	for _, e := range history {
		if e.Date.After(at) {
			continue
		}
		// >= so a later-inserted entry wins a date tie
		if !found || e.Date.AfterOrEqual(best.Date) {
			best = e
			found = true
		}
	}
	return best, found
}

func latestRestockAsOf(history []RestockEntry, at TimePoint) (RestockEntry, bool) {
	var best RestockEntry
	found := false
	for _, e := range history {
		if e.Date.After(at) {
			continue
		}
		if !found || e.Date.AfterOrEqual(best.Date) {
			best = e
			found = true
		}
	}
	return best, found
}

func positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}
