// Package overdue decides when a task's due moment has passed far enough for
// the task to be completed automatically.
package overdue

import (
	"time"

	"github.com/harrisonrobin/daysleft/pkg/model"
)

// Eligible reports whether a task due at due can be completed at now.
//
// Both values are compared in UTC. A date-only due value becomes eligible the
// day after its date. A date-time value becomes eligible as soon as its
// instant has passed, even on the same day.
func Eligible(due model.Due, now time.Time) bool {
	if due.IsZero() {
		return false
	}
	dueUTC := due.Date.UTC()
	nowUTC := now.UTC()

	if dateOf(dueUTC).Before(dateOf(nowUTC)) {
		return true
	}
	// The kind decides whether a time was given, so a date-time due at
	// exactly midnight UTC counts as timed and is eligible once it passes.
	return due.Kind == model.DateTime && dueUTC.Before(nowUTC)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
