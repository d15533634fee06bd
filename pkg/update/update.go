// Package update decides whether a task's marker needs rewriting.
package update

import (
	"github.com/harrisonrobin/daysleft/pkg/marker"
)

// Action is the outcome of Decide.
type Action int

const (
	Skip Action = iota
	Rewrite
)

func (a Action) String() string {
	if a == Rewrite {
		return "rewrite"
	}
	return "skip"
}

const (
	ReasonUnchanged = "days unchanged"
	ReasonMalformed = "existing marker malformed"
	ReasonNoop      = "content already current"
	ReasonNew       = "no existing marker"
	ReasonChanged   = "days changed"
	ReasonExhausted = "days exhausted"
	ReasonForced    = "forced"
)

// Decision describes what to do with a task's content.
type Decision struct {
	Action    Action
	Content   string
	Reason    string
	Existing  int
	Found     bool
	Effective int
	// Err is set when an existing marker could not be parsed.
	Err error
}

// Decide compares the marker already in content with freshly computed counts.
//
// A marker that matches the mode's effective count is left alone unless force
// is set. A malformed marker is never overwritten. When the count is exhausted
// the marker is removed whatever the comparison says. Without force, a rewrite
// that would not change the content is reported as a skip.
func Decide(content string, calendar, business int, mode marker.Mode, force bool) Decision {
	d := Decision{Content: content, Effective: mode.Effective(calendar, business)}

	existing, found, err := marker.Parse(content)
	d.Existing, d.Found = existing, found
	if err != nil {
		d.Reason = ReasonMalformed
		d.Err = err
		return d
	}

	exhausted := mode.Exhausted(calendar, business)
	if found && existing == d.Effective && !force && !exhausted {
		d.Reason = ReasonUnchanged
		return d
	}

	next := marker.Apply(content, marker.Render(calendar, business, mode))
	if next == content && !force {
		d.Reason = ReasonNoop
		return d
	}

	d.Action = Rewrite
	d.Content = next
	switch {
	case force:
		d.Reason = ReasonForced
	case exhausted:
		d.Reason = ReasonExhausted
	case found:
		d.Reason = ReasonChanged
	default:
		d.Reason = ReasonNew
	}
	return d
}
