package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/cost-ledger/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func day(s string) ledger.TimePoint {
	return ledger.MustParseTimePoint(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "expected %s, got %s", want, got.String())
}

func stocks(tl ledger.Timeline) []string {
	out := make([]string, len(tl.Events))
	for i, e := range tl.Events {
		out[i] = e.Stock.String()
	}
	return out
}

// wholeMilkSnapshot is the latte bar from the README walkthrough:
//
//	Whole Milk, initial 20, $4.00 from Jan 1 (pkg 1, qty 1), restock 12 @ $4.20 on Jan 10
//	Latte uses 0.5 milk per serving; 4 sold Jan 5, 6 sold Jan 15
func wholeMilkSnapshot() *ledger.Snapshot {
	return &ledger.Snapshot{
		Products: []ledger.Product{
			{
				ID:          "milk",
				Name:        "Whole Milk",
				Unit:        "gallon",
				PackageSize: d("1"),
				Quantity:    d("1"),
				Cost:        d("4.50"),
				PriceHistory: []ledger.PriceEntry{
					{Date: day("2024-01-01"), Price: d("4.00"), PackageSize: dp("1"), Quantity: dp("1")},
				},
				RestockHistory: []ledger.RestockEntry{
					{Date: day("2024-01-10"), Quantity: d("12"), Cost: d("4.20"), TotalCost: d("50.40")},
				},
				InitialQuantity: dp("20"),
			},
		},
		Recipes: []ledger.Recipe{
			{
				ID:    "latte",
				Name:  "Latte",
				Price: d("4.50"),
				Ingredients: []ledger.Ingredient{
					{ProductID: "milk", Quantity: d("0.5"), Unit: "gallon"},
				},
			},
		},
		Sales: []ledger.SalesRecord{
			{ID: "s1", RecipeID: "latte", Date: day("2024-01-05"), Quantity: d("4"), Price: d("4.50")},
			{ID: "s2", RecipeID: "latte", Date: day("2024-01-15"), Quantity: d("6"), Price: d("4.50")},
		},
		Inventory: []ledger.InventoryItem{
			{
				ProductID:    "milk",
				CurrentStock: d("27"),
				StockHistory: []ledger.StockEntry{
					{Date: day("2024-01-05"), Stock: d("18"), Source: ledger.SourceSale, Amount: dp("-2"), Info: "Latte"},
					{Date: day("2024-01-10"), Stock: d("30"), Source: ledger.SourceManualRestock, Amount: dp("12")},
					{Date: day("2024-01-15"), Stock: d("27"), Source: ledger.SourceSale, Amount: dp("-3"), Info: "Latte"},
				},
			},
		},
	}
}
