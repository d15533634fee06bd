package model

import "time"

// DueKind tells a calendar date apart from a specific instant.
type DueKind int

const (
	DateOnly DueKind = iota
	DateTime
)

func (k DueKind) String() string {
	if k == DateTime {
		return "datetime"
	}
	return "date"
}

// Due is a task's due moment as the task service reports it.
// DateOnly values hold a civil date at midnight UTC; DateTime values hold an instant.
type Due struct {
	Kind DueKind
	Date time.Time
	Lang string
}

// NewDate builds a DateOnly due value from a civil date.
func NewDate(year int, month time.Month, day int, lang string) Due {
	return Due{Kind: DateOnly, Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Lang: lang}
}

// NewDateTime builds a DateTime due value.
func NewDateTime(t time.Time, lang string) Due {
	return Due{Kind: DateTime, Date: t, Lang: lang}
}

// IsZero reports whether the due value has no date component.
func (d Due) IsZero() bool { return d.Date.IsZero() }

// DateOnly strips time and zone, keeping the calendar date as seen in loc.
func (d Due) DateOnly(loc *time.Location) Due {
	c := d.CivilDate(loc)
	return Due{Kind: DateOnly, Date: c, Lang: d.Lang}
}

// CivilDate returns the due date at midnight UTC, reading DateTime values in loc.
func (d Due) CivilDate(loc *time.Location) time.Time {
	t := d.Date
	if d.Kind == DateTime && loc != nil {
		t = t.In(loc)
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// Format renders the value the way task services accept it on write.
func (d Due) Format() string {
	if d.Kind == DateOnly {
		return d.Date.Format(time.DateOnly)
	}
	return d.Date.UTC().Format(time.RFC3339)
}

// Task represents a task from any of the supported task services.
type Task struct {
	ID        string
	Content   string
	ProjectID string
	Due       *Due
}

// HasDue reports whether the task carries a usable due date.
func (t Task) HasDue() bool { return t.Due != nil && !t.Due.IsZero() }

// Project is a named task container: a Todoist project, a Google task list,
// or a Taskwarrior project name.
type Project struct {
	ID   string
	Name string
}
