package filter

import (
	"fmt"
	"time"
)

// DateMode selects how the date filter's interval is computed.
type DateMode string

// Date filter modes.
const (
	DateAll         DateMode = "all"
	DateToday       DateMode = "today"
	DateYesterday   DateMode = "yesterday"
	DateCurrentWeek DateMode = "current_week"
	DateLastWeek    DateMode = "last_week"
	DateCurrentYear DateMode = "current_year"
	DateLastYear    DateMode = "last_year"
	DateCustom      DateMode = "custom"
)

// Modes lists every date mode in menu order.
var Modes = []DateMode{
	DateAll, DateToday, DateYesterday, DateCurrentWeek,
	DateLastWeek, DateCurrentYear, DateLastYear, DateCustom,
}

// ParseDateMode validates a mode name. The empty string means DateAll.
func ParseDateMode(s string) (DateMode, error) {
	if s == "" {
		return DateAll, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return DateAll, fmt.Errorf("unknown date range %q", s)
}

// DateRange is the user's date selection. From and To are only read for
// DateCustom and are inclusive calendar days; a zero value leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
	Mode DateMode
}

// Interval is a half-open [From, To) time interval. A zero bound is unbounded.
type Interval struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
	if !iv.From.IsZero() && t.Before(iv.From) {
		return false
	}
	if !iv.To.IsZero() && !t.Before(iv.To) {
		return false
	}
	return true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart returns local midnight of the Monday of t's week. Sunday counts as
// the seventh day of the week that began the Monday before.
func weekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return midnight(t).AddDate(0, 0, -(weekday - 1))
}

// Resolve computes the interval for r relative to now. ok is false when the
// range places no restriction on dates.
func Resolve(r DateRange, now time.Time) (iv Interval, ok bool) {
	today := midnight(now)

	switch r.Mode {
	case DateToday:
		return Interval{From: today, To: today.AddDate(0, 0, 1)}, true
	case DateYesterday:
		return Interval{From: today.AddDate(0, 0, -1), To: today}, true
	case DateCurrentWeek:
		monday := weekStart(now)
		return Interval{From: monday, To: monday.AddDate(0, 0, 7)}, true
	case DateLastWeek:
		monday := weekStart(now)
		return Interval{From: monday.AddDate(0, 0, -7), To: monday}, true
	case DateCurrentYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Interval{From: start, To: start.AddDate(1, 0, 0)}, true
	case DateLastYear:
		start := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())
		return Interval{From: start, To: start.AddDate(1, 0, 0)}, true
	case DateCustom:
		if r.From.IsZero() && r.To.IsZero() {
			return Interval{}, false
		}
		if !r.From.IsZero() {
			iv.From = midnight(r.From)
		}
		if !r.To.IsZero() {
			// the end day is inclusive
			iv.To = midnight(r.To).AddDate(0, 0, 1)
		}
		return iv, true
	}
	return Interval{}, false
}
