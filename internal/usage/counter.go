// Package usage implements the per-user daily usage counters that enforce
// the free-tier ceilings. A counter is a {count, date} pair; the count is
// meaningful only while the stored date equals the current calendar day.
package usage

import "time"

// Unlimited disables the ceiling check (premium plans).
const Unlimited = 0

// Counter is the persisted daily usage pair. The date is a calendar day in
// YYYY-MM-DD form, local to the server that evaluated it.
type Counter struct {
	Count int    `json:"count"`
	Date  string `json:"date"`
}

// Day formats a time as the calendar-day string counters are keyed by.
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}

// EffectiveCount returns the count that applies today. A counter stamped
// with any other day counts as zero without being rewritten; the stale pair
// stays in place until the next increment.
func (c Counter) EffectiveCount(today string) int {
	if c.Date != today {
		return 0
	}
	return c.Count
}

// Allowed reports whether one more use fits under the ceiling today.
// A limit of Unlimited always allows.
func (c Counter) Allowed(limit int, today string) bool {
	if limit == Unlimited {
		return true
	}
	return c.EffectiveCount(today) < limit
}

// Increment returns the counter after recording one use today. A counter
// from an earlier day restarts at 1.
func (c Counter) Increment(today string) Counter {
	if c.Date != today {
		return Counter{Count: 1, Date: today}
	}
	return Counter{Count: c.Count + 1, Date: today}
}
