// Package recurrence computes successor due dates for recurring tasks.
package recurrence

import (
	"time"

	"github.com/roomly/roomly/internal/model"
)

// NextDue returns the due date one interval after from: a day for daily,
// seven days for weekly, one calendar month for monthly. Monthly advances
// clamp to the last day of shorter months (Jan 31 -> Feb 28/29).
// Returns from unchanged for RecurrenceNone.
func NextDue(recurrence string, from time.Time) time.Time {
	switch recurrence {
	case model.RecurrenceDaily:
		return from.AddDate(0, 0, 1)
	case model.RecurrenceWeekly:
		return from.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		return addMonth(from)
	}
	return from
}

func addMonth(t time.Time) time.Time {
	year, month, day := t.Date()

	// time.AddDate normalizes overflow (Jan 31 + 1 month = Mar 2/3), which
	// is not what a monthly chore means. Clamp to the target month instead.
	nextYear, nextMonth := year, month+1
	if nextMonth > time.December {
		nextYear, nextMonth = year+1, time.January
	}
	if last := daysInMonth(nextYear, nextMonth); day > last {
		day = last
	}

	return time.Date(nextYear, nextMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
