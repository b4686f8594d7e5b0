// Package schedule holds the pure calendar arithmetic shared by the
// completion log store, the aggregation engine and the calendar view.
package schedule

import (
	"time"

	"gymplatform/backend/internal/domain"
)

// StartOfDay normalizes t to midnight UTC. All day-keyed records store this
// normalized value.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of t's UTC calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// WeekSinceStart returns the 1-based plan week that target falls into,
// counted in elapsed 7-day blocks since start: floor(daysDiff/7)+1.
// Dates before the plan start clamp to week 1.
func WeekSinceStart(start, target time.Time) int {
	days := int(StartOfDay(target).Sub(StartOfDay(start)).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days/7 + 1
}

// ISOWeek returns the ISO-8601 week number of t (Thursday-anchored).
// Used for dashboard bucketing only, never for plan week tracking.
func ISOWeek(t time.Time) int {
	_, week := t.UTC().ISOWeek()
	return week
}

// WeekdayName returns the locale-independent lowercase weekday of t.
func WeekdayName(t time.Time) domain.DayOfWeek {
	switch t.UTC().Weekday() {
	case time.Monday:
		return domain.Monday
	case time.Tuesday:
		return domain.Tuesday
	case time.Wednesday:
		return domain.Wednesday
	case time.Thursday:
		return domain.Thursday
	case time.Friday:
		return domain.Friday
	case time.Saturday:
		return domain.Saturday
	default:
		return domain.Sunday
	}
}
