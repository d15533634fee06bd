package marker

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		content   string
		wantDays  int
		wantFound bool
		wantErr   bool
	}{
		{"Pay rent", 0, false, false},
		{"Pay rent [5/3 days remaining]", 5, true, false},
		{"Pay rent [12 days remaining]", 12, true, false},
		{"Pay rent [[7/2 days remaining]]", 7, true, false},
		{"Pay rent   [4/ days remaining] later", 4, true, false},
		{"Pay rent [abc days remaining]", 0, true, true},
		{"Pay rent[5 days remaining]", 0, false, false},
		{"Pay rent [5 days left]", 0, false, false},
		{"Pay rent [99999999999999999999 days remaining]", 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			days, found, err := Parse(tt.content)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("Expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if days != tt.wantDays {
				t.Errorf("days = %d, want %d", days, tt.wantDays)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		calendar int
		business int
		mode     Mode
		want     string
	}{
		{"both", 5, 3, ShowBoth, " [5/3 days remaining]"},
		{"all days", 5, 3, AllDaysOnly, " [5 days remaining]"},
		{"workdays", 5, 3, WorkdaysOnly, " [3 days remaining]"},
		{"both tomorrow", 1, 0, ShowBoth, " [1/0 days remaining]"},
		{"workdays exhausted", 1, 0, WorkdaysOnly, ""},
		{"all days exhausted", 0, 0, AllDaysOnly, ""},
		{"both exhausted", 0, 0, ShowBoth, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.calendar, tt.business, tt.mode); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		replacement string
		want        string
	}{
		{"append", "Pay rent", " [5/3 days remaining]", "Pay rent [5/3 days remaining]"},
		{"replace", "Pay rent [6/4 days remaining]", " [5/3 days remaining]", "Pay rent [5/3 days remaining]"},
		{"replace legacy form", "Pay rent [6 days remaining]", " [5/3 days remaining]", "Pay rent [5/3 days remaining]"},
		{"remove", "Pay rent [1/0 days remaining]", "", "Pay rent"},
		{"keep trailing text", "Pay [2 days remaining] rent @home", " [1 days remaining]", "Pay [1 days remaining] rent @home"},
		{"only first marker", "A [3 days remaining] B [3 days remaining]", " [2 days remaining]", "A [2 days remaining] B [3 days remaining]"},
		{"append nothing", "Pay rent", "", "Pay rent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.content, tt.replacement); got != tt.want {
				t.Errorf("Apply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyLeavesSurroundingTextAlone(t *testing.T) {
	prefix := "Renew passport (see [link](https://example.com/a/b)) "
	suffix := " ~ ünïcode / [brackets] 42"
	content := prefix + "[9/6 days remaining]" + suffix

	got := Apply(content, " [8/5 days remaining]")
	if !strings.HasPrefix(got, strings.TrimSuffix(prefix, " ")) {
		t.Errorf("prefix changed: %q", got)
	}
	if !strings.HasSuffix(got, suffix) {
		t.Errorf("suffix changed: %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	modes := []Mode{ShowBoth, AllDaysOnly, WorkdaysOnly}
	for _, mode := range modes {
		for calendar := 1; calendar < 30; calendar++ {
			business := calendar * 5 / 7
			if mode.Exhausted(calendar, business) {
				continue
			}
			content := Apply("Water plants", Render(calendar, business, mode))
			days, found, err := Parse(content)
			if err != nil || !found {
				t.Fatalf("%s: Parse(%q) = %d, %v, %v", mode, content, days, found, err)
			}
			if want := mode.Effective(calendar, business); days != want {
				t.Errorf("%s: round trip gave %d, want %d", mode, days, want)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":          ShowBoth,
		"both":      ShowBoth,
		"true":      WorkdaysOnly,
		"Workdays":  WorkdaysOnly,
		"false":     AllDaysOnly,
		" alldays ": AllDaysOnly,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseMode("sometimes"); err == nil {
		t.Error("Expected an error for an unknown mode")
	}
}
