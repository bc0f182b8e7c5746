package compliance

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// artifactYear is the year the extractor stamps on dates it could not read.
const artifactYear = 1900

// ErrNoDates is returned by EarlierOf when neither candidate is set.
var ErrNoDates = eris.New("compliance: no dates to compare")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses an extractor date string. Dates without a zone are UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsArtifactDate reports whether s parses to a date in 1900, the extractor's
// "could not read" sentinel.
func IsArtifactDate(s string) bool {
	t, ok := ParseDate(s)
	return ok && t.Year() == artifactYear
}

// UsableDate reports whether s parses to a real, non-artifact date.
func UsableDate(s string) bool {
	t, ok := ParseDate(s)
	return ok && t.Year() != artifactYear
}

// EarlierOf returns whichever of a and b is chronologically earlier. An empty
// string counts as unset; if only one is set it is returned. When a date does
// not parse the other one wins, and a wins if neither parses.
func EarlierOf(a, b string) (string, error) {
	switch {
	case a == "" && b == "":
		return "", ErrNoDates
	case a == "":
		return b, nil
	case b == "":
		return a, nil
	}
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		if tb.Before(ta) {
			return b, nil
		}
		return a, nil
	case !okA && okB:
		return b, nil
	default:
		return a, nil
	}
}

// isPast reports whether s is a real date strictly before now.
func isPast(s string, now time.Time) bool {
	t, ok := ParseDate(s)
	return ok && t.Before(now)
}

// isFuture reports whether s is a real date strictly after now.
func isFuture(s string, now time.Time) bool {
	t, ok := ParseDate(s)
	return ok && t.After(now)
}

// NormalizeDate renders s as YYYY-MM-DD, or returns it unchanged when it
// does not parse.
func NormalizeDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return t.Format("2006-01-02")
}
