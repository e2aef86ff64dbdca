package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Dates on the ledger (effective dates, sale dates, restocks)
// =============================================================================

// TimePoint is a moment on the ledger. Most records are entered as calendar
// days ("2024-01-05"); POS-style sales may carry a full timestamp. Granularity
// records which one we have so comparisons don't invent precision.
type TimePoint struct {
	Time        time.Time
	Granularity Granularity
}

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityHour
	GranularityMinute
	GranularityExact
)

const dayLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Granularity: GranularityDay}
}

func NewTimePointAt(t time.Time) TimePoint {
	return TimePoint{Time: t.UTC(), Granularity: GranularityExact}
}

func Today() TimePoint {
	now := time.Now().UTC()
	return NewTimePoint(now.Year(), now.Month(), now.Day())
}

// ParseTimePoint accepts "2006-01-02" (day granularity) or RFC3339 (exact).
func ParseTimePoint(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dayLayout, s); err == nil {
		return TimePoint{Time: t, Granularity: GranularityDay}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or RFC3339)", s)
	}
	return NewTimePointAt(t), nil
}

// MustParseTimePoint is for fixtures and tests.
func MustParseTimePoint(s string) TimePoint {
	tp, err := ParseTimePoint(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

// SameDay compares calendar days only.
func (tp TimePoint) SameDay(other TimePoint) bool { return tp.Day().Time.Equal(other.Day().Time) }

func (tp TimePoint) normalize() time.Time {
	t := tp.Time.UTC()
	switch tp.Granularity {
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case GranularityMinute:
		return t.Truncate(time.Minute)
	default:
		return t
	}
}

// Day truncates to the calendar day.
func (tp TimePoint) Day() TimePoint {
	t := tp.Time.UTC()
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, 0, n), Granularity: tp.Granularity}
}

func (tp TimePoint) IsZero() bool { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	switch tp.Granularity {
	case GranularityDay:
		return tp.Time.Format(dayLayout)
	case GranularityHour:
		return tp.Time.Format("2006-01-02 15:00")
	default:
		return tp.Time.Format(time.RFC3339)
	}
}

// MarshalJSON writes day points as "YYYY-MM-DD" and everything else as RFC3339.
func (tp TimePoint) MarshalJSON() ([]byte, error) {
	if tp.IsZero() {
		return []byte(`""`), nil
	}
	if tp.Granularity == GranularityDay {
		return json.Marshal(tp.Time.Format(dayLayout))
	}
	return json.Marshal(tp.Time.UTC().Format(time.RFC3339))
}

func (tp *TimePoint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*tp = TimePoint{}
		return nil
	}
	parsed, err := ParseTimePoint(s)
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// DaysBetween counts whole calendar days from -> to.
func DaysBetween(from, to TimePoint) int {
	return int(to.Day().Time.Sub(from.Day().Time).Hours() / 24)
}
