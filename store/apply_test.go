package store_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cost-ledger/ledger"
	"github.com/warp/cost-ledger/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var clock = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func day(s string) ledger.TimePoint { return ledger.MustParseTimePoint(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "expected %s, got %s", want, got.String())
}

// run applies commands in order and fails the test on the first error.
func run(t *testing.T, snap *ledger.Snapshot, cmds ...store.Command) *ledger.Snapshot {
	t.Helper()
	for _, cmd := range cmds {
		next, err := store.ApplyAt(snap, cmd, clock)
		require.NoError(t, err, cmd.CommandName())
		snap = next
	}
	return snap
}

func milk() store.AddProduct {
	return store.AddProduct{
		Product: ledger.Product{
			ID:              "milk",
			Name:            "Whole Milk",
			Unit:            "gallon",
			PackageSize:     d("1"),
			Quantity:        d("1"),
			Cost:            d("4.00"),
			InitialQuantity: dp("20"),
		},
		Date: day("2024-01-01"),
	}
}

func latte() store.AddRecipe {
	return store.AddRecipe{Recipe: ledger.Recipe{
		ID:    "latte",
		Name:  "Latte",
		Price: d("4.50"),
		Ingredients: []ledger.Ingredient{
			{ProductID: "milk", Quantity: d("0.5"), Unit: "gallon"},
		},
	}}
}

// latteBar builds the walkthrough restaurant through commands only.
func latteBar(t *testing.T) *ledger.Snapshot {
	return run(t, nil,
		milk(),
		latte(),
		store.RecordSale{Sale: ledger.SalesRecord{ID: "s1", RecipeID: "latte", Date: day("2024-01-05"), Quantity: d("4")}},
		store.RecordRestock{ProductID: "milk", Date: day("2024-01-10"), Quantity: d("12"), Cost: d("4.20")},
		store.RecordSale{Sale: ledger.SalesRecord{ID: "s2", RecipeID: "latte", Date: day("2024-01-15"), Quantity: d("6")}},
	)
}

// =============================================================================
// REDUCER
// =============================================================================

func TestApply_CommandsReproduceWalkthrough(t *testing.T) {
	// GIVEN: The latte bar entered through commands
	// WHEN: Reading it back through the engine
	// THEN: Stock 20 -> 18 -> 30 -> 27, per-serving $2.00 then $2.10

	snap := latteBar(t)

	assert.Equal(t, int64(5), snap.Version)
	require.Len(t, snap.Inventory, 1)
	assertDecimal(t, "27", snap.Inventory[0].CurrentStock)

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)
	require.Len(t, tl.Events, 3)
	assertDecimal(t, "18", tl.Events[0].Stock)
	assertDecimal(t, "30", tl.Events[1].Stock)
	assertDecimal(t, "27", tl.Events[2].Stock)
	require.Len(t, tl.RestockLog, 1)
	assert.True(t, tl.RestockLog[0].Matched)

	recipe := &snap.Recipes[0]
	assertDecimal(t, "2.00", ledger.CostPerServing(recipe, day("2024-01-05"), snap))
	assertDecimal(t, "2.10", ledger.CostPerServing(recipe, day("2024-01-15"), snap))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	// GIVEN: A snapshot a reader is holding
	// WHEN: Applying a restock
	// THEN: The reader's snapshot is unchanged

	before := latteBar(t)
	restocks := len(before.Products[0].RestockHistory)
	history := len(before.Inventory[0].StockHistory)

	after := run(t, before, store.RecordRestock{ProductID: "milk", Date: day("2024-01-20"), Quantity: d("3")})

	assert.Len(t, before.Products[0].RestockHistory, restocks)
	assert.Len(t, before.Inventory[0].StockHistory, history)
	assertDecimal(t, "27", before.Inventory[0].CurrentStock)
	assert.Equal(t, int64(5), before.Version)

	assertDecimal(t, "30", after.Inventory[0].CurrentStock)
	assert.Equal(t, int64(6), after.Version)
}

func TestApply_ErrorLeavesNoSnapshot(t *testing.T) {
	snap := latteBar(t)

	next, err := store.ApplyAt(snap, store.DeleteProduct{ID: "cream"}, clock)

	assert.Nil(t, next)
	assert.ErrorIs(t, err, ledger.ErrProductNotFound)
}

func TestApply_NilCommand(t *testing.T) {
	_, err := store.Apply(nil, nil)
	assert.ErrorIs(t, err, store.ErrInvalidCommand)
}

func TestApply_StampsUpdatedAt(t *testing.T) {
	snap := run(t, nil, milk())
	assert.True(t, snap.UpdatedAt.Time.Equal(clock))
}

// =============================================================================
// PRODUCTS
// =============================================================================

func TestAddProduct_SeedsHistoryAndInventory(t *testing.T) {
	snap := run(t, nil, milk())

	p := snap.Products[0]
	require.Len(t, p.PriceHistory, 1)
	assert.Equal(t, "2024-01-01", p.PriceHistory[0].Date.String())
	assertDecimal(t, "4.00", p.PriceHistory[0].Price)
	assert.Equal(t, "2024-01-01", p.CreatedAt.String())

	require.Len(t, snap.Inventory, 1)
	assertDecimal(t, "20", snap.Inventory[0].CurrentStock)
}

func TestAddProduct_MintsIDAndDefaultsBaseline(t *testing.T) {
	// GIVEN: A product with no id, no initial quantity and no date
	// WHEN: Adding it
	// THEN: An id is minted, baseline is Quantity, price entry is dated today

	snap := run(t, nil, store.AddProduct{Product: ledger.Product{Name: "Sugar", Quantity: d("5"), Cost: d("2")}})

	p := snap.Products[0]
	assert.NotEmpty(t, p.ID)
	require.NotNil(t, p.InitialQuantity)
	assertDecimal(t, "5", *p.InitialQuantity)
	assert.Equal(t, "2024-02-01", p.PriceHistory[0].Date.String())
}

func TestAddProduct_Validation(t *testing.T) {
	snap := run(t, nil, milk())

	_, err := store.ApplyAt(snap, milk(), clock)
	assert.ErrorIs(t, err, ledger.ErrDuplicateID)

	_, err = store.ApplyAt(snap, store.AddProduct{Product: ledger.Product{Name: " "}}, clock)
	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestUpdateProduct_PriceHistoryOnlyOnChange(t *testing.T) {
	// GIVEN: Milk at $4.00
	// WHEN: Saving $4.00 again, then $4.40 backdated to Jan 8
	// THEN: Only the real change is appended, with its effective date

	snap := run(t, nil, milk())

	same := d("4.00")
	snap = run(t, snap, store.UpdateProduct{ID: "milk", Cost: &same, Date: day("2024-01-03")})
	assert.Len(t, snap.Products[0].PriceHistory, 1)

	changed := d("4.40")
	snap = run(t, snap, store.UpdateProduct{ID: "milk", Cost: &changed, Date: day("2024-01-08")})
	require.Len(t, snap.Products[0].PriceHistory, 2)
	assert.Equal(t, "2024-01-08", snap.Products[0].PriceHistory[1].Date.String())

	assertDecimal(t, "4.00", ledger.UnitCostAsOf(&snap.Products[0], day("2024-01-07")))
	assertDecimal(t, "4.40", ledger.UnitCostAsOf(&snap.Products[0], day("2024-01-08")))
}

func TestUpdateProduct_QuantityEditProducesReset(t *testing.T) {
	// GIVEN: The latte bar at 27
	// WHEN: Editing the quantity to 9 effective Jan 20
	// THEN: A reset entry pins stock to 9 and the replay ends there

	snap := latteBar(t)
	nine := d("9")

	snap = run(t, snap, store.UpdateProduct{ID: "milk", Quantity: &nine, Date: day("2024-01-20")})

	history := snap.Inventory[0].StockHistory
	last := history[len(history)-1]
	assert.Equal(t, ledger.SourceReset, last.Source)
	assertDecimal(t, "9", last.Stock)
	assertDecimal(t, "9", snap.Inventory[0].CurrentStock)

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)
	assertDecimal(t, "9", tl.Final())
}

func TestUpdateProduct_QuantityEditKeepsRestockCost(t *testing.T) {
	// GIVEN: Milk restocked at $4.20 on Jan 10
	// WHEN: Editing only the quantity on Jan 12
	// THEN: No price entry is added and the restock still sets the cost

	snap := latteBar(t)
	two := d("2")

	snap = run(t, snap, store.UpdateProduct{ID: "milk", Quantity: &two, Date: day("2024-01-12")})

	p := snap.Products[0]
	assert.Len(t, p.PriceHistory, 1)

	rc := ledger.ResolveCostAsOf(&p, day("2024-01-15"))
	assert.Equal(t, ledger.CostFromRestock, rc.Source)
	assertDecimal(t, "4.20", rc.Cost)
	assertDecimal(t, "4.20", rc.UnitCost)
}

func TestUpdateProduct_PackageOnlyEditAddsNoPriceEntry(t *testing.T) {
	snap := run(t, nil, milk())
	size := d("2")

	snap = run(t, snap, store.UpdateProduct{ID: "milk", PackageSize: &size, Date: day("2024-01-03")})

	assert.Len(t, snap.Products[0].PriceHistory, 1)
	assertDecimal(t, "2", snap.Products[0].PackageSize)
}

func TestUpdateProduct_CostChangeCarriesPackageMetadata(t *testing.T) {
	// GIVEN: Milk at $4.00 per 1 gallon
	// WHEN: Switching to a $7.00 two-gallon jug on Jan 8
	// THEN: The new entry records the package, so a unit costs $3.50

	snap := run(t, nil, milk())
	cost, size := d("7.00"), d("2")

	snap = run(t, snap, store.UpdateProduct{ID: "milk", Cost: &cost, PackageSize: &size, Date: day("2024-01-08")})

	p := snap.Products[0]
	require.Len(t, p.PriceHistory, 2)
	require.NotNil(t, p.PriceHistory[1].PackageSize)
	assertDecimal(t, "2", *p.PriceHistory[1].PackageSize)
	assertDecimal(t, "3.50", ledger.UnitCostAsOf(&p, day("2024-01-09")))
	assertDecimal(t, "4.00", ledger.UnitCostAsOf(&p, day("2024-01-07")))
}

func TestUpdateProduct_SameQuantityNoReset(t *testing.T) {
	snap := latteBar(t)
	one := d("1")
	history := len(snap.Inventory[0].StockHistory)

	snap = run(t, snap, store.UpdateProduct{ID: "milk", Quantity: &one})

	assert.Len(t, snap.Inventory[0].StockHistory, history)
}

func TestDeleteProduct_RecipeIngredientCostsZero(t *testing.T) {
	snap := run(t, latteBar(t), store.DeleteProduct{ID: "milk"})

	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Inventory)
	assertDecimal(t, "0", ledger.CostPerServing(&snap.Recipes[0], day("2024-01-05"), snap))
}

// =============================================================================
// STOCK MOVEMENTS
// =============================================================================

func TestRecordRestock_DoesNotTouchProductCost(t *testing.T) {
	snap := run(t, latteBar(t))

	assertDecimal(t, "4.00", snap.Products[0].Cost)
	restock := snap.Products[0].RestockHistory[0]
	assertDecimal(t, "50.40", restock.TotalCost)
}

func TestRecordRestock_DefaultsCostAndRejectsZeroQuantity(t *testing.T) {
	snap := run(t, nil, milk(), store.RecordRestock{ProductID: "milk", Quantity: d("2")})
	assertDecimal(t, "4.00", snap.Products[0].RestockHistory[0].Cost)

	_, err := store.ApplyAt(snap, store.RecordRestock{ProductID: "milk", Quantity: d("0")}, clock)
	assert.ErrorIs(t, err, ledger.ErrInvalid)
}

func TestResetStock(t *testing.T) {
	snap := run(t, latteBar(t), store.ResetStock{ProductID: "milk", Date: day("2024-01-12"), Stock: d("7"), Info: "stocktake"})

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)
	require.Len(t, tl.Events, 4)
	assertDecimal(t, "7", tl.Events[2].Stock)
	assertDecimal(t, "4", tl.Final())
}

func TestRecordSale_DefaultsAndLookup(t *testing.T) {
	// GIVEN: A sale referencing the recipe by name, with no price or id
	// WHEN: Recording it
	// THEN: The recipe is resolved, price defaults to the recipe price, an id is minted

	snap := run(t, nil, milk(), latte(),
		store.RecordSale{Sale: ledger.SalesRecord{RecipeName: "LATTE", Date: day("2024-01-05"), Quantity: d("2")}},
	)

	sale := snap.Sales[0]
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, ledger.RecipeID("latte"), sale.RecipeID)
	assertDecimal(t, "4.50", sale.Price)
	assertDecimal(t, "19", snap.Inventory[0].CurrentStock)
}

func TestRecordSale_UnknownRecipe(t *testing.T) {
	snap := run(t, nil, milk())

	_, err := store.ApplyAt(snap, store.RecordSale{Sale: ledger.SalesRecord{RecipeID: "mocha", Quantity: d("1")}}, clock)
	assert.ErrorIs(t, err, ledger.ErrRecipeNotFound)
}

// =============================================================================
// RECIPES & EXPENSES
// =============================================================================

func TestDeleteRecipe_KeepsSales(t *testing.T) {
	snap := run(t, latteBar(t), store.DeleteRecipe{ID: "latte"})

	assert.Len(t, snap.Sales, 2)
	days := ledger.ComputeDailyCOGS(snap)
	require.Len(t, days, 2)
	assertDecimal(t, "0", days[0].COGS)
	assertDecimal(t, "18", days[0].Revenue)
}

func TestUpdateRecipe(t *testing.T) {
	r := latte().Recipe
	r.Ingredients[0].Quantity = d("1")
	snap := run(t, latteBar(t), store.UpdateRecipe{Recipe: r})

	assertDecimal(t, "4.00", ledger.CostPerServing(&snap.Recipes[0], day("2024-01-05"), snap))

	_, err := store.ApplyAt(snap, store.UpdateRecipe{Recipe: ledger.Recipe{ID: "mocha", Name: "Mocha"}}, clock)
	assert.ErrorIs(t, err, ledger.ErrRecipeNotFound)
}

func TestExpenses(t *testing.T) {
	snap := run(t, nil,
		store.AddExpense{Expense: ledger.Expense{ID: "rent", Name: "Rent", Amount: d("1200"), Recurring: true, Frequency: ledger.FrequencyMonthly}},
		store.UpdateExpense{Expense: ledger.Expense{ID: "rent", Name: "Rent", Amount: d("1300"), Recurring: true, Frequency: ledger.FrequencyMonthly}},
	)
	assertDecimal(t, "1300", snap.Expenses[0].Amount)

	_, err := store.ApplyAt(snap, store.AddExpense{Expense: ledger.Expense{Amount: d("5"), Recurring: true, Frequency: "hourly"}}, clock)
	assert.ErrorIs(t, err, ledger.ErrInvalid)

	snap = run(t, snap, store.DeleteExpense{ID: "rent"})
	assert.Empty(t, snap.Expenses)

	_, err = store.ApplyAt(snap, store.DeleteExpense{ID: "rent"}, clock)
	assert.ErrorIs(t, err, ledger.ErrExpenseNotFound)
}

func TestReplaceSnapshot_KeepsVersionMonotonic(t *testing.T) {
	snap := latteBar(t)
	incoming := &ledger.Snapshot{Version: 1, Products: []ledger.Product{{ID: "flour", Name: "Flour"}}}

	snap = run(t, snap, store.ReplaceSnapshot{Snapshot: incoming})

	assert.Equal(t, int64(6), snap.Version)
	require.Len(t, snap.Products, 1)
	assert.Equal(t, ledger.ProductID("flour"), snap.Products[0].ID)
	assert.Empty(t, snap.Sales)
}
