// Package calendarday classifies Gregorian calendar days into the five duty
// day-types the rest of the system quotas and prices against.
package calendarday

import "time"

// Type is one of the five duty day-type buckets.
type Type string

const (
	Hici Type = "hici" // Monday-Wednesday
	Prs  Type = "prs"  // Thursday
	Cum  Type = "cum"  // Friday
	Cmt  Type = "cmt"  // Saturday
	Pzr  Type = "pzr"  // Sunday
)

// All lists every day-type in a stable order, used whenever callers need to
// iterate the full set deterministically.
var All = []Type{Hici, Prs, Cum, Cmt, Pzr}

// Hours is the default per-day-type duty-length weight used for hour-balance
// penalties.
var Hours = map[Type]int{
	Hici: 8,
	Prs:  8,
	Cum:  16,
	Cmt:  24,
	Pzr:  16,
}

// Holiday marks a calendar day as overriding its natural weekday day-type.
type Holiday struct {
	Day  int
	Type Type
}

// Classify returns the day-type for year/month/day, honoring any holiday
// override for that day. A holiday entry whose Type isn't one of the five
// valid types is ignored (falls through to the weekday rule).
func Classify(year, month, day int, holidays map[int]Holiday) Type {
	if h, ok := holidays[day]; ok && isValid(h.Type) {
		return h.Type
	}
	switch time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday() {
	case time.Monday, time.Tuesday, time.Wednesday:
		return Hici
	case time.Thursday:
		return Prs
	case time.Friday:
		return Cum
	case time.Saturday:
		return Cmt
	default: // time.Sunday
		return Pzr
	}
}

func isValid(t Type) bool {
	switch t {
	case Hici, Prs, Cum, Cmt, Pzr:
		return true
	}
	return false
}

// DayCount returns the number of days in the given Gregorian year/month.
func DayCount(year, month int) int {
	firstOfNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

// BuildMonth classifies every day of year/month into a day→Type map.
func BuildMonth(year, month int, holidays map[int]Holiday) map[int]Type {
	n := DayCount(year, month)
	out := make(map[int]Type, n)
	for d := 1; d <= n; d++ {
		out[d] = Classify(year, month, d, holidays)
	}
	return out
}

// CountsByType tallies, over a day→Type map, how many days fall in each type.
func CountsByType(dayTypes map[int]Type) map[Type]int {
	counts := map[Type]int{Hici: 0, Prs: 0, Cum: 0, Cmt: 0, Pzr: 0}
	for _, t := range dayTypes {
		counts[t]++
	}
	return counts
}

// IsWeekend reports whether a day-type counts toward the weekend bucket
// (Friday/Saturday/Sunday) used by the hour/weekend balancing terms.
func IsWeekend(t Type) bool {
	return t == Cum || t == Cmt || t == Pzr
}
