package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cost-ledger/ledger"
)

// espressoBar sells single shots costing $1 each: 10 on Jan 3, 6 on Jan 20,
// so daily COGS is $10 and $6 with 16 idle days in between.
func espressoBar() *ledger.Snapshot {
	return &ledger.Snapshot{
		Products: []ledger.Product{
			{ID: "beans", Name: "Beans", PackageSize: d("1"), Quantity: d("1"), Cost: d("1")},
		},
		Recipes: []ledger.Recipe{
			{ID: "shot", Name: "Espresso", Price: d("3"), Ingredients: []ledger.Ingredient{
				{ProductID: "beans", Quantity: d("1")},
			}},
		},
		Sales: []ledger.SalesRecord{
			{ID: "a", RecipeID: "shot", Date: day("2024-01-20"), Quantity: d("6"), Price: d("3")},
			{ID: "b", RecipeID: "shot", Date: day("2024-01-03"), Quantity: d("10"), Price: d("3")},
		},
		Expenses: []ledger.Expense{
			{ID: "rent", Name: "Rent", Amount: d("1200"), Recurring: true, Frequency: ledger.FrequencyMonthly},
		},
	}
}

// =============================================================================
// DAILY COGS
// =============================================================================

func TestDailyCOGS_GroupsBySaleDayAscending(t *testing.T) {
	days := ledger.ComputeDailyCOGS(espressoBar())

	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-03", days[0].Date.String())
	assertDecimal(t, "10", days[0].COGS)
	assertDecimal(t, "30", days[0].Revenue)
	assert.Equal(t, 1, days[0].Sales)
	assert.Equal(t, "2024-01-20", days[1].Date.String())
	assertDecimal(t, "6", days[1].COGS)
}

func TestDailyCOGS_UsesCostAsOfSaleDate(t *testing.T) {
	// GIVEN: The latte bar, milk cost changes between sales
	// WHEN: Computing daily COGS
	// THEN: 4 x $2.00 on Jan 5, 6 x $2.10 on Jan 15

	days := ledger.ComputeDailyCOGS(wholeMilkSnapshot())

	require.Len(t, days, 2)
	assertDecimal(t, "8.00", days[0].COGS)
	assertDecimal(t, "12.60", days[1].COGS)
}

func TestDailyCOGS_MissingRecipeCountsRevenueOnly(t *testing.T) {
	snap := espressoBar()
	snap.Sales = append(snap.Sales,
		ledger.SalesRecord{ID: "c", RecipeID: "gone", Date: day("2024-01-10"), Quantity: d("2"), Price: d("5")},
	)
	diag := ledger.NewDiagnostics(false)

	days := ledger.ComputeDailyCOGS(snap, ledger.WithDiagnostics(diag))

	require.Len(t, days, 3)
	assertDecimal(t, "0", days[1].COGS)
	assertDecimal(t, "10", days[1].Revenue)
	assert.Equal(t, 1, diag.Len())
}

func TestDailyCOGS_Range(t *testing.T) {
	days := ledger.ComputeDailyCOGS(espressoBar(), ledger.WithRange(day("2024-01-10"), ledger.TimePoint{}))

	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-20", days[0].Date.String())
}

// =============================================================================
// FIXED COSTS
// =============================================================================

func TestFixedCosts_Annualization(t *testing.T) {
	// GIVEN: One expense per frequency, a one-off, and a recurring expense with no frequency
	// WHEN: Annualizing
	// THEN: daily x365, weekly x52, monthly x12, one-off x1, unknown treated as monthly

	expenses := []ledger.Expense{
		{ID: "1", Amount: d("10"), Recurring: true, Frequency: ledger.FrequencyDaily},
		{ID: "2", Amount: d("100"), Recurring: true, Frequency: ledger.FrequencyWeekly},
		{ID: "3", Amount: d("1000"), Recurring: true, Frequency: ledger.FrequencyMonthly},
		{ID: "4", Amount: d("500")},
		{ID: "5", Amount: d("50"), Recurring: true},
	}

	fc := ledger.ComputeFixedCosts(expenses)

	// 3650 + 5200 + 12000 + 500 + 600
	assertDecimal(t, "21950", fc.Annual)
	assert.True(t, d("21950").Div(d("12")).Equal(fc.Monthly))
	assert.True(t, d("21950").Div(d("52")).Equal(fc.Weekly))
	assert.True(t, d("21950").Div(d("365")).Equal(fc.Daily))
	assertDecimal(t, "21950", fc.Share(ledger.PeriodYear))
}

func TestFixedCosts_Empty(t *testing.T) {
	fc := ledger.ComputeFixedCosts(nil)
	assertDecimal(t, "0", fc.Annual)
	assertDecimal(t, "0", fc.Daily)
}

// =============================================================================
// BREAKEVEN
// =============================================================================

func TestBreakeven_AveragesOverSaleDaysOnly(t *testing.T) {
	// GIVEN: COGS $10 on Jan 3 and $6 on Jan 20
	// WHEN: Computing the daily breakeven
	// THEN: Average daily COGS is (10+6)/2 = 8, not spread over 18 calendar days

	b, err := ledger.ComputeBreakeven(ledger.PeriodDay, espressoBar())
	require.NoError(t, err)

	assertDecimal(t, "8", b.AvgDailyCOGS)
	assertDecimal(t, "8", b.AvgCOGS)
	assert.Equal(t, 2, b.SaleDays)
	require.NotNil(t, b.Span)
	assert.Equal(t, 18, b.Span.Days())
}

func TestBreakeven_Month(t *testing.T) {
	// GIVEN: Rent $1200/month, avg daily COGS 8, avg daily revenue (30+18)/2 = 24
	// WHEN: Computing for a month
	// THEN: breakeven = 1200 + 8x30, revenue = 24x30, profit = revenue - breakeven

	b, err := ledger.ComputeBreakeven(ledger.PeriodMonth, espressoBar())
	require.NoError(t, err)

	assertDecimal(t, "1200", b.FixedShare)
	assertDecimal(t, "240", b.AvgCOGS)
	assertDecimal(t, "1440", b.Breakeven)
	assertDecimal(t, "720", b.Revenue)
	assertDecimal(t, "-720", b.Profit)
	assertDecimal(t, "16", b.TotalCOGS)
	assertDecimal(t, "48", b.TotalRevenue)
}

func TestBreakeven_Year(t *testing.T) {
	b, err := ledger.ComputeBreakeven(ledger.PeriodYear, espressoBar())
	require.NoError(t, err)

	assertDecimal(t, "14400", b.FixedShare)
	assertDecimal(t, "2920", b.AvgCOGS)
	assertDecimal(t, "17320", b.Breakeven)
}

func TestBreakeven_NoSales(t *testing.T) {
	// GIVEN: Only fixed costs
	// WHEN: Computing for a week
	// THEN: COGS terms are zero, breakeven is the fixed share alone

	snap := espressoBar()
	snap.Sales = nil

	b, err := ledger.ComputeBreakeven(ledger.PeriodWeek, snap)
	require.NoError(t, err)

	assertDecimal(t, "0", b.AvgDailyCOGS)
	assert.Nil(t, b.Span)
	assert.True(t, d("14400").Div(d("52")).Equal(b.Breakeven))
}

func TestBreakeven_InvalidPeriod(t *testing.T) {
	_, err := ledger.ComputeBreakeven(ledger.Period("fortnight"), espressoBar())
	assert.ErrorIs(t, err, ledger.ErrInvalidPeriod)
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]ledger.Period{
		"day": ledger.PeriodDay, "Weekly": ledger.PeriodWeek, " month ": ledger.PeriodMonth, "annual": ledger.PeriodYear,
	} {
		got, err := ledger.ParsePeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ledger.ParsePeriod("quarter")
	assert.ErrorIs(t, err, ledger.ErrInvalidPeriod)
}
