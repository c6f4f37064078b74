package record

import (
	"strings"
	"time"
)

// isoLayout matches the persisted form: UTC, millisecond precision, "Z" suffix.
const isoLayout = "2006-01-02T15:04:05.000Z"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DateOf converts a time to its persisted ISO-8601 form.
func DateOf(t time.Time) *string {
	s := t.UTC().Format(isoLayout)
	return &s
}

// ParseDate parses a persisted or caller-supplied date. Nil, blank or
// unparsable values report false.
func ParseDate(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate rewrites a date into the persisted ISO-8601 form. Nil and
// blank values become nil. Values that do not parse are kept verbatim;
// ValidateTask and ValidateMeeting reject them before they reach the store.
func NormalizeDate(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	if t, ok := ParseDate(s); ok {
		return DateOf(t)
	}
	v := *s
	return &v
}

func cloneDate(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
