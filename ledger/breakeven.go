/*
breakeven.go - Fixed costs, average COGS, breakeven and profit

PURPOSE:
  Turns daily COGS and expense records into period-level figures.

AVERAGING (the asymmetry is deliberate and must stay):
  COGS and revenue:  averaged over SALE DAYS only.
                     avgDailyCOGS = totalCOGS / (distinct days with >= 1 sale)
                     Days without sales are in neither numerator nor denominator.
  Fixed expenses:    annualized, then spread evenly over the year whether or
                     not anything sold.
                       daily x 365, weekly x 52, monthly x 12, one-off x 1
                       share(year)=annual  share(month)=annual/12
                       share(week)=annual/52  share(day)=annual/365

FORMULAS:
  avgCOGS(period)   = avgDailyCOGS x daysIn(period)      (1, 7, 30, 365)
  breakeven(period) = fixedShare(period) + avgCOGS(period)
  revenue(period)   = avgDailyRevenue x daysIn(period)
  profit(period)    = revenue(period) - breakeven(period)

EXAMPLE:
  COGS $10 on Jan 3 and $6 on Jan 20, nothing else sold:
    avgDailyCOGS = 16 / 2 = 8   (not 16 / 18 calendar days)
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// FIXED COSTS
// =============================================================================

type FixedCosts struct {
	Annual  decimal.Decimal `json:"annual"`
	Monthly decimal.Decimal `json:"monthly"`
	Weekly  decimal.Decimal `json:"weekly"`
	Daily   decimal.Decimal `json:"daily"`
}

// Share returns the fixed cost attributed to one period.
func (f FixedCosts) Share(p Period) decimal.Decimal {
	return f.Annual.Div(p.PerYear())
}

// AnnualizedExpense converts one expense to a yearly amount. Recurring
// expenses with an unknown frequency are treated as monthly.
func AnnualizedExpense(e Expense) decimal.Decimal {
	if !e.Recurring {
		return e.Amount
	}
	switch e.Frequency {
	case FrequencyDaily:
		return e.Amount.Mul(decimal.NewFromInt(365))
	case FrequencyWeekly:
		return e.Amount.Mul(decimal.NewFromInt(52))
	default:
		return e.Amount.Mul(decimal.NewFromInt(12))
	}
}

func ComputeFixedCosts(expenses []Expense) FixedCosts {
	annual := decimal.Zero
	for _, e := range expenses {
		annual = annual.Add(AnnualizedExpense(e))
	}
	fc := FixedCosts{Annual: annual}
	fc.Monthly = fc.Share(PeriodMonth)
	fc.Weekly = fc.Share(PeriodWeek)
	fc.Daily = fc.Share(PeriodDay)
	return fc
}

// =============================================================================
// BREAKEVEN
// =============================================================================

type Breakeven struct {
	Period Period `json:"period"`

	FixedShare   decimal.Decimal `json:"fixedShare"`
	AvgDailyCOGS decimal.Decimal `json:"avgDailyCogs"`
	AvgCOGS      decimal.Decimal `json:"avgCogs"`
	Breakeven    decimal.Decimal `json:"breakeven"`

	AvgDailyRevenue decimal.Decimal `json:"avgDailyRevenue"`
	Revenue         decimal.Decimal `json:"revenue"`
	Profit          decimal.Decimal `json:"profit"`

	TotalCOGS    decimal.Decimal `json:"totalCogs"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	SaleDays     int             `json:"saleDays"`

	// Span covers first through last sale day; informational only, the
	// averages never divide by it.
	Span *DateRange `json:"span,omitempty"`

	Fixed FixedCosts `json:"fixed"`
}

// AverageDailyCOGS is totalCOGS / number of days that had a sale.
func AverageDailyCOGS(days []DailyCOGS) decimal.Decimal {
	if len(days) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, d := range days {
		total = total.Add(d.COGS)
	}
	return total.Div(decimal.NewFromInt(int64(len(days))))
}

// ComputeBreakeven rolls the snapshot's sales and expenses into one period.
// WithRange limits which sales are averaged; expenses are never ranged.
func ComputeBreakeven(period Period, snap *Snapshot, opts ...Option) (Breakeven, error) {
	if !period.Valid() {
		return Breakeven{}, ErrInvalidPeriod
	}
	if snap == nil {
		snap = &Snapshot{}
	}

	days := ComputeDailyCOGS(snap, opts...)
	fixed := ComputeFixedCosts(snap.Expenses)

	b := Breakeven{
		Period:          period,
		FixedShare:      fixed.Share(period),
		AvgDailyCOGS:    decimal.Zero,
		AvgDailyRevenue: decimal.Zero,
		TotalCOGS:       decimal.Zero,
		TotalRevenue:    decimal.Zero,
		SaleDays:        len(days),
		Fixed:           fixed,
	}
	for _, d := range days {
		b.TotalCOGS = b.TotalCOGS.Add(d.COGS)
		b.TotalRevenue = b.TotalRevenue.Add(d.Revenue)
	}
	if len(days) > 0 {
		n := decimal.NewFromInt(int64(len(days)))
		b.AvgDailyCOGS = b.TotalCOGS.Div(n)
		b.AvgDailyRevenue = b.TotalRevenue.Div(n)
		b.Span = &DateRange{Start: days[0].Date, End: days[len(days)-1].Date}
	}

	b.AvgCOGS = b.AvgDailyCOGS.Mul(period.DaysIn())
	b.Breakeven = b.FixedShare.Add(b.AvgCOGS)
	b.Revenue = b.AvgDailyRevenue.Mul(period.DaysIn())
	b.Profit = b.Revenue.Sub(b.Breakeven)
	return b, nil
}
