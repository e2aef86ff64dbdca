/*
Package ledger is the cost and inventory engine for a restaurant.

PURPOSE:
  Answers two questions about a restaurant's ingredients:
    1. How much stock did we have after every sale, delivery and stocktake?
    2. What did one unit of this ingredient actually cost us on a given day?
  and rolls the answers up into COGS, breakeven and profit figures.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: an ingredient we buy, with its price and restock histories
  - InventoryItem: the cached stock count plus its stock history
  - Recipe: a menu item built from ingredient quantities
  - SalesRecord: one sale of N servings of a recipe
  - Expense: fixed cost that feeds breakeven

TWO INDEPENDENT AXES:
  Stock count:  InventoryItem.CurrentStock / StockHistory (how much is on the shelf)
  Cost basis:   Product.Quantity x Product.PackageSize (what one purchase buys)
  Editing one never silently rewrites the other. A purchase-quantity edit is
  recorded as an explicit reset on the stock axis.

DESIGN PRINCIPLES:
  1. Stateless: every read recomputes from an immutable Snapshot
  2. Precision: decimal.Decimal for money and quantities
  3. Forgiving reads: missing references contribute zero, bad divisors become 1,
     nothing in the engine is fatal (see diagnostics.go to surface them)

SEE ALSO:
  - events.go: stored records -> canonical events
  - timeline.go: stock replay
  - cost.go: point-in-time cost resolution
  - cogs.go, breakeven.go: aggregation
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type RecipeID string
type SaleID string
type ExpenseID string

// =============================================================================
// PRODUCT - Something we buy
// =============================================================================

// PriceEntry is one cost change. Date is the user-chosen effective date and
// may be earlier than entries recorded before it.
type PriceEntry struct {
	Date        TimePoint        `json:"date"`
	Price       decimal.Decimal  `json:"price"`
	PackageSize *decimal.Decimal `json:"packageSize,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
}

// RestockEntry is a delivery: a stock-count delta, never a cost-basis edit.
// Cost uses the same basis as Product.Cost (one purchase).
type RestockEntry struct {
	Date      TimePoint       `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
	TotalCost decimal.Decimal `json:"totalCost"`
}

type Product struct {
	ID       ProductID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Unit     string    `json:"unit"`

	// Cost-basis denominator: PackageSize units per package, Quantity packages per purchase.
	PackageSize decimal.Decimal `json:"packageSize"`
	Quantity    decimal.Decimal `json:"quantity"`

	// Current cost of one purchase.
	Cost decimal.Decimal `json:"cost"`

	PriceHistory   []PriceEntry   `json:"priceHistory"`
	RestockHistory []RestockEntry `json:"restockHistory"`

	// Baseline stock at creation. Nil means "use Quantity".
	InitialQuantity *decimal.Decimal `json:"initialQuantity,omitempty"`

	CreatedAt TimePoint `json:"createdAt"`
}

// Baseline is the stock count replay starts from.
func (p Product) Baseline() decimal.Decimal {
	if p.InitialQuantity != nil {
		return *p.InitialQuantity
	}
	return p.Quantity
}

// =============================================================================
// INVENTORY - Stock count axis
// =============================================================================

type StockSource string

const (
	SourceSale          StockSource = "sale"
	SourceManualRestock StockSource = "manual-restock"
	SourceReset         StockSource = "reset"
)

// StockEntry is one line of an item's stock history. Stock is the running
// balance after the entry was applied.
type StockEntry struct {
	Date   TimePoint        `json:"date"`
	Stock  decimal.Decimal  `json:"stock"`
	Source StockSource      `json:"source"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Info   string           `json:"info,omitempty"`
}

type InventoryItem struct {
	ProductID    ProductID       `json:"productId"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	StockHistory []StockEntry    `json:"stockHistory"`
}

// =============================================================================
// RECIPE & SALES
// =============================================================================

type Ingredient struct {
	ProductID ProductID       `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
}

type Recipe struct {
	ID          RecipeID        `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Ingredients []Ingredient    `json:"ingredients"`
}

// SalesRecord is one sale of Quantity servings. It references its recipe by
// id, or by name for records imported without ids. Price is per serving.
type SalesRecord struct {
	ID         SaleID          `json:"id"`
	RecipeID   RecipeID        `json:"recipeId,omitempty"`
	RecipeName string          `json:"recipeName,omitempty"`
	Date       TimePoint       `json:"date"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// Revenue is Price x Quantity.
func (s SalesRecord) Revenue() decimal.Decimal { return s.Price.Mul(s.Quantity) }

// =============================================================================
// EXPENSES - Fixed-cost side of breakeven
// =============================================================================

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

type Expense struct {
	ID        ExpenseID       `json:"id"`
	Name      string          `json:"name,omitempty"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Recurring bool            `json:"recurring"`
	Frequency Frequency       `json:"frequency,omitempty"`
}

// =============================================================================
// TIMELINE OUTPUT
// =============================================================================

// TimelineEvent is one replay step. Stock is the balance after the step.
// Amount is the signed delta for sales and restocks and the absolute value
// for resets.
type TimelineEvent struct {
	Date   TimePoint       `json:"date"`
	Stock  decimal.Decimal `json:"stock"`
	Type   EventKind       `json:"type"`
	Source StockSource     `json:"source"`
	Amount decimal.Decimal `json:"amount"`
	Info   string          `json:"info,omitempty"`
}
