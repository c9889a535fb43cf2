// Package biztime provides time helpers shared by the board.
// All transport uses UTC. Date-only input is taken as midnight UTC so the
// calendar day a user typed is the day the server stores.
package biztime

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the display layout for due dates.
const DateLayout = "2006-01-02"

// dueDateLayouts lists the textual date forms accepted for a due date,
// most specific first.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseDueDate parses any accepted textual date and returns it in UTC.
func ParseDueDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format %q", raw)
}

// NormalizeDueDate converts an optional textual date into the form sent to
// the server. Nil or blank input yields nil.
func NormalizeDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := ParseDueDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders a due date for display. Nil renders as empty.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// FormatTimestamp renders a server timestamp in the local zone for display.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}
