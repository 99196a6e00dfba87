package chatlogs

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar-date format used by the --date flag
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD day in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return day, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FilterByDate keeps the logs whose timestamp falls on day's calendar date in loc,
// sorted oldest first
func FilterByDate(logs []Log, day time.Time, loc *time.Location) []Log {
	if loc == nil {
		loc = time.Local
	}
	day = day.In(loc)

	out := make([]Log, 0, len(logs))
	for _, l := range logs {
		if sameDay(l.Time.In(loc), day) {
			out = append(out, l)
		}
	}
	SortByTime(out)
	return out
}

// SortByTime orders logs oldest first
func SortByTime(logs []Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Time.Before(logs[j].Time)
	})
}

// Dates returns the distinct calendar dates present in logs, most recent first
func Dates(logs []Log, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}

	seen := make(map[string]time.Time)
	for _, l := range logs {
		t := l.Time.In(loc)
		key := t.Format(DateLayout)
		if _, ok := seen[key]; !ok {
			y, m, d := t.Date()
			seen[key] = time.Date(y, m, d, 0, 0, 0, 0, loc)
		}
	}

	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}
