// Package dates handles calendar dates. A date is a time.Time at 00:00 UTC,
// which is how pgx scans a Postgres DATE column.
package dates

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Day returns the calendar date of t as observed in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Of builds a date from its parts.
func Of(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the clock part of a date that may carry one.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return Of(y, m, d)
}

// SameDay compares calendar dates, ignoring the clock and zone.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func Format(t time.Time) string {
	return t.Format(Layout)
}
