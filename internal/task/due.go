package task

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form accepted for due dates.
const DateLayout = time.DateOnly

// ParseDue parses a due date given as YYYY-MM-DD or RFC 3339. An empty string means no due date.
func ParseDue(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%w: due date %q is not YYYY-MM-DD or RFC 3339", ErrInvalid, value)
	}
	t = t.UTC()
	return &t, nil
}

// FormatDue renders a due date for display; nil renders as an empty string.
func FormatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(time.RFC3339)
}
