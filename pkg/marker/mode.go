package marker

import (
	"fmt"
	"strings"
)

// Mode selects which count a marker displays.
type Mode int

const (
	// ShowBoth renders "calendar/business".
	ShowBoth Mode = iota
	// AllDaysOnly renders calendar days.
	AllDaysOnly
	// WorkdaysOnly renders business days.
	WorkdaysOnly
)

func (m Mode) String() string {
	switch m {
	case AllDaysOnly:
		return "alldays"
	case WorkdaysOnly:
		return "workdays"
	default:
		return "both"
	}
}

// ParseMode reads a work-week mode setting. Besides the names returned by
// String it accepts the boolean form used by older deployments: "true" means
// workdays only, "false" all days, and an empty value shows both.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "showboth", "show-both":
		return ShowBoth, nil
	case "alldays", "all", "alldaysonly", "all-days", "false":
		return AllDaysOnly, nil
	case "workdays", "work", "workdaysonly", "work-days", "true":
		return WorkdaysOnly, nil
	}
	return ShowBoth, fmt.Errorf("unknown work-week mode %q", s)
}

// Effective returns the single count compared against an existing marker:
// business days for WorkdaysOnly, calendar days otherwise.
func (m Mode) Effective(calendar, business int) int {
	if m == WorkdaysOnly {
		return business
	}
	return calendar
}

// Exhausted reports whether the mode's count has run out, in which case the
// marker is removed rather than rendered.
func (m Mode) Exhausted(calendar, business int) bool {
	return m.Effective(calendar, business) <= 0
}

// Display formats the marker value for the mode.
func (m Mode) Display(calendar, business int) string {
	switch m {
	case WorkdaysOnly:
		return fmt.Sprintf("%d", business)
	case AllDaysOnly:
		return fmt.Sprintf("%d", calendar)
	default:
		return fmt.Sprintf("%d/%d", calendar, business)
	}
}
