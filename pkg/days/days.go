// Package days converts a due date into the number of calendar days and
// business days left before it.
package days

import (
	"time"

	"github.com/harrisonrobin/daysleft/pkg/model"
)

// civil returns t's calendar date at midnight UTC.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Between returns the whole number of days from the calendar date of from to
// the calendar date of to. Both dates are read in their own locations.
func Between(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)).Hours() / 24)
}

// IsWeekday reports whether t falls Monday to Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Remaining returns the calendar days and business days left until due, as
// seen from now. "Today" is now's date in now's location.
//
// Business days count Monday to Friday strictly between today and the due
// date; neither endpoint is counted. Once today reaches the due date both
// values are zero.
func Remaining(now time.Time, due model.Due) (calendar, business int) {
	today := civil(now)
	target := due.CivilDate(now.Location())
	if !today.Before(target) {
		return 0, 0
	}

	calendar = Between(today, target)
	for i := 1; i < calendar; i++ {
		if IsWeekday(today.AddDate(0, 0, i)) {
			business++
		}
	}
	return calendar, business
}
