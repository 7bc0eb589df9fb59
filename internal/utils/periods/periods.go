// Package periods resolves named reporting periods to concrete calendar date
// ranges. All boundaries are calendar-date granularity; the caller's wall
// clock decides "today" and no timezone conversion is performed.
package periods

import "time"

// Key is a named period token accepted by the dashboard API.
type Key string

const (
	ThisMonth   Key = "this_month"
	LastMonth   Key = "last_month"
	YTD         Key = "ytd"
	ThisYear    Key = "this_year"
	LastYear    Key = "last_year"
	ThisQuarter Key = "this_quarter"
	LastQuarter Key = "last_quarter"
)

// Pair is a resolved reporting period and its comparator period. Both ranges
// are inclusive of their endpoints, matching the accounting provider's
// convention. PrevStart/PrevEnd are immediately adjacent to the current range
// and of equal length (prior calendar year for year-scoped keys).
type Pair struct {
	Start     time.Time
	End       time.Time
	PrevStart time.Time
	PrevEnd   time.Time
}

// YearScoped reports whether the key covers a calendar-year window, which the
// dashboard treats specially (prior-year comparator and monthly series).
func (k Key) YearScoped() bool {
	return k == YTD || k == ThisYear || k == LastYear
}

// Resolve maps a period key and the caller's current date to a concrete Pair.
// Unknown keys resolve as year-to-date.
func Resolve(key Key, now time.Time) Pair {
	today := date(now.Year(), now.Month(), now.Day())

	switch key {
	case ThisMonth:
		start := date(today.Year(), today.Month(), 1)
		prevEnd := start.AddDate(0, 0, -1)
		return Pair{
			Start:     start,
			End:       today,
			PrevStart: date(prevEnd.Year(), prevEnd.Month(), 1),
			PrevEnd:   prevEnd,
		}

	case LastMonth:
		thisMonthStart := date(today.Year(), today.Month(), 1)
		end := thisMonthStart.AddDate(0, 0, -1)
		start := date(end.Year(), end.Month(), 1)
		prevEnd := start.AddDate(0, 0, -1)
		return Pair{
			Start:     start,
			End:       end,
			PrevStart: date(prevEnd.Year(), prevEnd.Month(), 1),
			PrevEnd:   prevEnd,
		}

	case LastYear:
		start := date(today.Year()-1, time.January, 1)
		return Pair{
			Start:     start,
			End:       date(today.Year()-1, time.December, 31),
			PrevStart: date(today.Year()-2, time.January, 1),
			PrevEnd:   date(today.Year()-2, time.December, 31),
		}

	case ThisQuarter:
		start := quarterStart(today)
		return Pair{
			Start:     start,
			End:       today,
			PrevStart: start.AddDate(0, -3, 0),
			PrevEnd:   start.AddDate(0, 0, -1),
		}

	case LastQuarter:
		currentStart := quarterStart(today)
		start := currentStart.AddDate(0, -3, 0)
		return Pair{
			Start:     start,
			End:       currentStart.AddDate(0, 0, -1),
			PrevStart: start.AddDate(0, -3, 0),
			PrevEnd:   start.AddDate(0, 0, -1),
		}

	default: // YTD, ThisYear and anything unrecognised
		return Pair{
			Start:     date(today.Year(), time.January, 1),
			End:       today,
			PrevStart: date(today.Year()-1, time.January, 1),
			PrevEnd:   sameDayPriorYear(today),
		}
	}
}

// sameDayPriorYear returns the same calendar day one year earlier, clamping
// to the month's last day so Feb 29 maps to Feb 28 rather than rolling into
// March.
func sameDayPriorYear(d time.Time) time.Time {
	year, month, day := d.Year()-1, d.Month(), d.Day()
	if last := date(year, month+1, 0).Day(); day > last {
		day = last
	}
	return date(year, month, day)
}

// quarterStart returns the first day of the calendar quarter containing d.
func quarterStart(d time.Time) time.Time {
	month := d.Month()
	startMonth := month - (month-1)%3
	return date(d.Year(), startMonth, 1)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Format renders a boundary date the way the accounting provider expects.
func Format(d time.Time) string {
	return d.Format("2006-01-02")
}
