package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PERIOD - Reporting granularity for breakeven and profit
// =============================================================================

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod accepts day/week/month/year and the -ly forms.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return PeriodDay, nil
	case "week", "weekly":
		return PeriodWeek, nil
	case "month", "monthly":
		return PeriodMonth, nil
	case "year", "yearly", "annual":
		return PeriodYear, nil
	}
	return "", ErrInvalidPeriod
}

// DaysIn is how many sale-day averages make up one period of COGS or revenue.
func (p Period) DaysIn() decimal.Decimal {
	switch p {
	case PeriodWeek:
		return decimal.NewFromInt(7)
	case PeriodMonth:
		return decimal.NewFromInt(30)
	case PeriodYear:
		return decimal.NewFromInt(365)
	default:
		return decimal.NewFromInt(1)
	}
}

// PerYear is how many of this period fit in a year, for splitting annualized
// fixed costs.
func (p Period) PerYear() decimal.Decimal {
	switch p {
	case PeriodWeek:
		return decimal.NewFromInt(52)
	case PeriodMonth:
		return decimal.NewFromInt(12)
	case PeriodYear:
		return decimal.NewFromInt(1)
	default:
		return decimal.NewFromInt(365)
	}
}

func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start TimePoint `json:"start"`
	End   TimePoint `json:"end"`
}

// Contains returns true if t falls on a day within [Start, End].
func (r DateRange) Contains(t TimePoint) bool {
	day := t.Day()
	return day.AfterOrEqual(r.Start.Day()) && day.BeforeOrEqual(r.End.Day())
}

// Days is the number of calendar days spanned, inclusive.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
