package finance

import (
	"fmt"
	"time"
)

// Period names a calendar-relative reporting window.
type Period string

const (
	PeriodToday     Period = "today"
	PeriodThisWeek  Period = "this_week"
	PeriodThisMonth Period = "this_month"
	PeriodThisYear  Period = "this_year"
	PeriodAllTime   Period = "all_time"
)

// Valid reports whether p is a known period name.
func (p Period) Valid() bool {
	switch p {
	case PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodThisYear, PeriodAllTime:
		return true
	}
	return false
}

// Window resolves p to a half-open [start, now) window in loc. Weeks start on
// Monday, so a Sunday maps six days back. PeriodAllTime leaves the lower bound
// open (zero time).
func (p Period) Window(now time.Time, loc *time.Location) (start, end time.Time, err error) {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		start = midnight
	case PeriodThisWeek:
		daysSinceMonday := (int(local.Weekday()) + 6) % 7
		start = midnight.AddDate(0, 0, -daysSinceMonday)
	case PeriodThisMonth:
		start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	case PeriodThisYear:
		start = time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case PeriodAllTime:
		start = time.Time{}
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("finance: unknown period %q", p)
	}
	return start, local, nil
}
