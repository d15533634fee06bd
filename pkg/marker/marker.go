// Package marker finds, parses and rewrites the " [N days remaining]" marker
// embedded in a task's text. Only the matched span is ever touched.
package marker

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformed is returned when a marker is present but its day count is not
// an integer.
var ErrMalformed = errors.New("malformed days remaining marker")

// Group 1 is the leading count. Older markers carry a single number, newer
// ones a "calendar/business" pair.
var pattern = regexp.MustCompile(` +\[+([^\[\]/\s]+)/*(\d*) days remaining\]+`)

// Span returns the byte offsets of the first marker in content, or ok=false.
func Span(content string) (start, end int, ok bool) {
	loc := pattern.FindStringIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// Parse returns the leading day count of the first marker in content.
// found is false when there is no marker; err wraps ErrMalformed when there
// is one whose count cannot be read.
func Parse(content string) (days int, found bool, err error) {
	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return 0, false, nil
	}
	days, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, true, fmt.Errorf("%w: %q", ErrMalformed, m[0])
	}
	return days, true, nil
}

// Render returns the text to splice into a task. It is empty when the mode's
// count is exhausted, which removes the marker.
func Render(calendar, business int, mode Mode) string {
	if mode.Exhausted(calendar, business) {
		return ""
	}
	return " [" + mode.Display(calendar, business) + " days remaining]"
}

// Apply replaces the first marker in content with replacement, or appends
// replacement when there is none.
func Apply(content, replacement string) string {
	start, end, ok := Span(content)
	if !ok {
		return content + replacement
	}
	return content[:start] + replacement + content[end:]
}
