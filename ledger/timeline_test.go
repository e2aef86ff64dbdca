package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cost-ledger/ledger"
)

// =============================================================================
// REPLAY TESTS
// =============================================================================

func TestTimeline_WholeMilk_EndToEnd(t *testing.T) {
	// GIVEN: Whole milk starting at 20, latte sales on Jan 5 and Jan 15, restock on Jan 10
	// WHEN: Reconstructing the milk timeline
	// THEN: 20 -> 18 -> 30 -> 27

	snap := wholeMilkSnapshot()

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	assertDecimal(t, "20", tl.Baseline)
	assert.Equal(t, []string{"18", "30", "27"}, stocks(tl))

	assert.Equal(t, ledger.EventSale, tl.Events[0].Type)
	assert.Equal(t, ledger.SourceSale, tl.Events[0].Source)
	assertDecimal(t, "-2", tl.Events[0].Amount)
	assert.Equal(t, "Latte", tl.Events[0].Info)

	assert.Equal(t, ledger.EventRestock, tl.Events[1].Type)
	assert.Equal(t, ledger.SourceManualRestock, tl.Events[1].Source)
	assertDecimal(t, "12", tl.Events[1].Amount)

	assertDecimal(t, "27", tl.Final())
}

func TestTimeline_Idempotent(t *testing.T) {
	// GIVEN: The same snapshot
	// WHEN: Replaying twice
	// THEN: Identical sequences

	snap := wholeMilkSnapshot()

	first, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)
	second, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTimeline_BaselineConservation(t *testing.T) {
	// GIVEN: No resets, several restocks and sales in scrambled insertion order
	// WHEN: Replaying
	// THEN: final = initial + restocks - depletions

	snap := wholeMilkSnapshot()
	milk := &snap.Products[0]
	milk.RestockHistory = append(milk.RestockHistory,
		ledger.RestockEntry{Date: day("2024-01-03"), Quantity: d("5"), Cost: d("4.00")},
		ledger.RestockEntry{Date: day("2024-01-20"), Quantity: d("2.5"), Cost: d("4.10")},
	)
	snap.Sales = append(snap.Sales,
		ledger.SalesRecord{ID: "s3", RecipeID: "latte", Date: day("2024-01-02"), Quantity: d("10"), Price: d("4.50")},
	)

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	// 20 + (12 + 5 + 2.5) - 0.5*(4 + 6 + 10) = 29.5
	assertDecimal(t, "29.5", tl.Final())

	for i := 1; i < len(tl.Events); i++ {
		assert.False(t, tl.Events[i].Date.Before(tl.Events[i-1].Date), "events must be ascending")
	}
}

func TestTimeline_ResetOverridesRunningBalance(t *testing.T) {
	// GIVEN: A stocktake reset to 7 on Jan 12, after a restock pushed stock to 30
	// WHEN: Replaying
	// THEN: The reset step is exactly 7, and the next sale subtracts from 7

	snap := wholeMilkSnapshot()
	snap.Inventory[0].StockHistory = append(snap.Inventory[0].StockHistory,
		ledger.StockEntry{Date: day("2024-01-12"), Stock: d("7"), Source: ledger.SourceReset, Info: "stocktake"},
	)

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	assert.Equal(t, []string{"18", "30", "7", "4"}, stocks(tl))
	assert.Equal(t, ledger.EventReset, tl.Events[2].Type)
	assert.Equal(t, ledger.SourceReset, tl.Events[2].Source)
	assert.Equal(t, "stocktake", tl.Events[2].Info)
}

func TestTimeline_NegativeStockIsAllowed(t *testing.T) {
	// GIVEN: Baseline 1 and a sale depleting 2 (4 lattes x 0.5)
	// WHEN: Replaying
	// THEN: Stock goes to -1 without clamping and is flagged as an anomaly

	snap := wholeMilkSnapshot()
	snap.Products[0].InitialQuantity = dp("1")
	snap.Products[0].RestockHistory = nil
	snap.Sales = snap.Sales[:1]

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	assert.Equal(t, []string{"-1"}, stocks(tl))
	assert.Len(t, tl.Anomalies(), 1)
}

func TestTimeline_BaselineFallsBackToQuantity(t *testing.T) {
	// GIVEN: No initial quantity; purchase quantity 3
	// WHEN: Replaying with no events
	// THEN: Baseline is 3

	snap := wholeMilkSnapshot()
	snap.Products[0].InitialQuantity = nil
	snap.Products[0].Quantity = d("3")
	snap.Products[0].RestockHistory = nil
	snap.Sales = nil

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	assertDecimal(t, "3", tl.Baseline)
	assert.Empty(t, tl.Events)
	assertDecimal(t, "3", tl.Final())
}

func TestTimeline_SameDayOrdering(t *testing.T) {
	// GIVEN: A sale, a restock and a reset all on Jan 10, inserted sale-first
	// WHEN: Replaying
	// THEN: reset -> restock -> sale, regardless of insertion order

	snap := wholeMilkSnapshot()
	snap.Sales = []ledger.SalesRecord{
		{ID: "s1", RecipeID: "latte", Date: day("2024-01-10"), Quantity: d("2"), Price: d("4.50")},
	}
	snap.Inventory[0].StockHistory = []ledger.StockEntry{
		{Date: day("2024-01-10"), Stock: d("5"), Source: ledger.SourceReset},
	}

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	require.Len(t, tl.Events, 3)
	assert.Equal(t, ledger.EventReset, tl.Events[0].Type)
	assert.Equal(t, ledger.EventRestock, tl.Events[1].Type)
	assert.Equal(t, ledger.EventSale, tl.Events[2].Type)
	assert.Equal(t, []string{"5", "17", "16"}, stocks(tl))
}

func TestTimeline_StockAt(t *testing.T) {
	snap := wholeMilkSnapshot()
	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	assertDecimal(t, "20", tl.StockAt(day("2024-01-01")))
	assertDecimal(t, "18", tl.StockAt(day("2024-01-09")))
	assertDecimal(t, "30", tl.StockAt(day("2024-01-10")))
	assertDecimal(t, "27", tl.StockAt(day("2024-02-01")))
}

func TestTimeline_UnknownProduct(t *testing.T) {
	_, err := ledger.ReconstructTimeline("nope", wholeMilkSnapshot())
	assert.ErrorIs(t, err, ledger.ErrProductNotFound)
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// MISSING REFERENCES
// =============================================================================

func TestTimeline_SaleWithMissingRecipe_Skipped(t *testing.T) {
	// GIVEN: A sale for a recipe that was deleted
	// WHEN: Replaying with diagnostics
	// THEN: It contributes nothing, and a warning is recorded

	snap := wholeMilkSnapshot()
	snap.Sales = append(snap.Sales,
		ledger.SalesRecord{ID: "ghost", RecipeID: "cortado", Date: day("2024-01-06"), Quantity: d("3")},
	)
	diag := ledger.NewDiagnostics(true)

	tl, err := ledger.ReconstructTimeline("milk", snap, ledger.WithDiagnostics(diag))
	require.NoError(t, err)

	assert.Equal(t, []string{"18", "30", "27"}, stocks(tl))
	warnings := diag.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, ledger.WarnMissingRecipe, warnings[0].Kind)
	assert.Equal(t, ledger.SaleID("ghost"), warnings[0].SaleID)
}

func TestTimeline_SaleMatchedByRecipeName(t *testing.T) {
	// GIVEN: Imported sales referencing the recipe by name only
	// WHEN: Replaying
	// THEN: Name lookup (case-insensitive) finds the recipe

	snap := wholeMilkSnapshot()
	snap.Sales[0].RecipeID = ""
	snap.Sales[0].RecipeName = "latte "

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"18", "30", "27"}, stocks(tl))
}

// =============================================================================
// RESTOCK LOG
// =============================================================================

func TestTimeline_RestockLog_MatchesRecords(t *testing.T) {
	// GIVEN: One manual restock record and one reset record
	// WHEN: Building the timeline
	// THEN: Both are matched to their replayed steps; sale records are not in the log

	snap := wholeMilkSnapshot()
	snap.Inventory[0].StockHistory = append(snap.Inventory[0].StockHistory,
		ledger.StockEntry{Date: day("2024-01-20"), Stock: d("25"), Source: ledger.SourceReset},
	)

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	require.Len(t, tl.RestockLog, 2)

	restock := tl.RestockLog[0]
	assert.True(t, restock.Matched)
	assert.Equal(t, ledger.SourceManualRestock, restock.Source)
	assertDecimal(t, "12", restock.Amount)
	assertDecimal(t, "30", restock.Replayed)
	assert.Equal(t, 1, restock.EventIndex)

	reset := tl.RestockLog[1]
	assert.True(t, reset.Matched)
	assertDecimal(t, "25", reset.Replayed)
	assert.Equal(t, 3, reset.EventIndex)
}

func TestTimeline_RestockLog_UnmatchedRecordKept(t *testing.T) {
	// GIVEN: A manual-restock record whose amount no longer matches restock history
	// WHEN: Building the timeline
	// THEN: The record appears unmatched rather than disappearing

	snap := wholeMilkSnapshot()
	snap.Inventory[0].StockHistory[1].Amount = dp("99")

	tl, err := ledger.ReconstructTimeline("milk", snap)
	require.NoError(t, err)

	require.Len(t, tl.RestockLog, 1)
	assert.False(t, tl.RestockLog[0].Matched)
	assert.Equal(t, -1, tl.RestockLog[0].EventIndex)
}
