package dateutil

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DisplayLayout is the day-first calendar format used on orders,
// invoices and customer-facing lists.
const DisplayLayout = "02/01/2006"

// dayFirstLayouts are tried before the generic parser because the
// business formats are day-first and would otherwise be read as
// month-first by dateparse.
var dayFirstLayouts = []string{
	"02/01/2006",
	"02-01-2006",
}

// Normalize truncates t to midnight UTC. All calendar-day comparisons
// in the delivery logic go through this so absence checks and
// eligibility windows use one timezone discipline.
func Normalize(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse accepts the date shapes stored on customer records over time:
// time.Time values, DD/MM/YYYY, DD-MM-YYYY, ISO strings and epoch
// numbers (seconds or milliseconds). The result is normalized to
// midnight UTC. Invalid input returns ok=false, never a panic.
func Parse(v interface{}) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return Normalize(d), true
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return Normalize(*d), true
	case string:
		return ParseString(d)
	case int:
		return fromEpoch(int64(d))
	case int64:
		return fromEpoch(d)
	case float64:
		return fromEpoch(int64(d))
	default:
		return time.Time{}, false
	}
}

// ParseString parses a date string, day-first formats taking
// precedence over the generic parser.
func ParseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Normalize(t), true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return Normalize(t), true
}

func fromEpoch(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	// epoch millis are 13 digits for any modern date
	if n > 1_000_000_000_000 {
		return Normalize(time.UnixMilli(n)), true
	}
	return Normalize(time.Unix(n, 0)), true
}

// Format renders a normalized date in the DD/MM/YYYY display format.
func Format(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// DaysBetween returns the number of whole days from a to b,
// negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Normalize(b).Sub(Normalize(a)).Hours() / 24)
}
