// Package timeutil provides challenge-period time arithmetic for the
// Select Start API. A challenge period is one calendar month in UTC; the
// helpers here compute period boundaries, the canonical period key used to
// tag progress records, and the presentation strings shown alongside the
// monthly leaderboard.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Common date formats.
const (
	// FormatPeriodKey is the canonical period key layout (YYYY-MM-DD).
	FormatPeriodKey = "2006-01-02"
	// FormatHumanDate is the layout used for period end display strings.
	FormatHumanDate = "January 2, 2006"
)

// EndedSentinel is returned by TimeRemaining once the period end has passed.
const EndedSentinel = "Challenge has ended"

// CurrentPeriod returns the boundaries of the challenge period containing
// ref: the first instant of its calendar month and the first instant of the
// following month. The end is exclusive, so consecutive periods never
// overlap. All arithmetic is done in UTC.
func CurrentPeriod(ref time.Time) (start, end time.Time) {
	u := ref.UTC()
	start = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// PeriodKey returns the canonical key for the period containing t:
// the ISO calendar date (YYYY-MM-DD) of the instant truncated to day.
// Progress records are tagged with the key of their period's start date.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(FormatPeriodKey)
}

// InYear reports whether a period key belongs to the given calendar year.
// Year scoping is a string prefix match against the 4-digit year, matching
// how the ingestion process keys records.
func InYear(periodKey string, year int) bool {
	return strings.HasPrefix(periodKey, strconv.Itoa(year)+"-")
}

// FormatEndOfPeriod renders the period end for display. The end instant is
// exclusive, so the shown date is the last day of the period.
func FormatEndOfPeriod(end time.Time) string {
	return end.UTC().AddDate(0, 0, -1).Format(FormatHumanDate)
}

// TimeRemaining renders how long is left until end, in whole days and whole
// remaining hours. Minutes are never shown. When fewer than 24 hours remain
// the day component is omitted entirely; once end has passed the fixed
// EndedSentinel is returned.
func TimeRemaining(end, now time.Time) string {
	if !end.After(now) {
		return EndedSentinel
	}

	remaining := end.Sub(now)
	days := int(remaining.Hours()) / 24
	hours := int(remaining.Hours()) % 24

	if days == 0 {
		return fmt.Sprintf("%s remaining", plural(hours, "hour"))
	}
	return fmt.Sprintf("%s and %s remaining", plural(days, "day"), plural(hours, "hour"))
}

// SameMonth reports whether two instants fall in the same calendar month
// and year in UTC. Nomination scoping uses this wall-clock comparison
// rather than challenge period boundaries; the two policies are kept
// separate on purpose.
func SameMonth(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
