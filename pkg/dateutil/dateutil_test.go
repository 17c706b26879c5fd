package dateutil

import (
	"testing"
	"time"
)

func TestParseDayFirst(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"05/01/2025", "2025-01-05"},
		{"05-01-2025", "2025-01-05"},
		{"31/12/2024", "2024-12-31"},
		{"2025-01-05", "2025-01-05"},
		{"2025-01-05T18:30:00Z", "2025-01-05"},
	}
	for _, c := range cases {
		got, ok := ParseString(c.in)
		if !ok {
			t.Fatalf("ParseString(%q) failed", c.in)
		}
		if got.Format("2006-01-02") != c.want {
			t.Errorf("ParseString(%q) = %s, want %s", c.in, got.Format("2006-01-02"), c.want)
		}
		if got.Hour() != 0 || got.Minute() != 0 || got.Location() != time.UTC {
			t.Errorf("ParseString(%q) not normalized to midnight UTC: %v", c.in, got)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "not a date", "99/99/9999"} {
		if _, ok := ParseString(in); ok {
			t.Errorf("ParseString(%q) should fail", in)
		}
	}
	if _, ok := Parse(nil); ok {
		t.Error("Parse(nil) should fail")
	}
	if _, ok := Parse(time.Time{}); ok {
		t.Error("Parse(zero time) should fail")
	}
}

func TestParseEpoch(t *testing.T) {
	secs := time.Date(2025, 1, 5, 15, 4, 5, 0, time.UTC).Unix()
	got, ok := Parse(secs)
	if !ok || Format(got) != "05/01/2025" {
		t.Errorf("Parse(epoch seconds) = %v ok=%v", got, ok)
	}
	millis := time.Date(2025, 1, 5, 15, 4, 5, 0, time.UTC).UnixMilli()
	got, ok = Parse(millis)
	if !ok || Format(got) != "05/01/2025" {
		t.Errorf("Parse(epoch millis) = %v ok=%v", got, ok)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	d, ok := ParseString("05/01/2025")
	if !ok {
		t.Fatal("parse failed")
	}
	if Format(d) != "05/01/2025" {
		t.Errorf("round trip = %q, want 05/01/2025", Format(d))
	}
}

func TestDaysBetween(t *testing.T) {
	a, _ := ParseString("01/01/2025")
	b, _ := ParseString("05/01/2025")
	if n := DaysBetween(a, b); n != 4 {
		t.Errorf("DaysBetween = %d, want 4", n)
	}
	if n := DaysBetween(b, a); n != -4 {
		t.Errorf("DaysBetween reversed = %d, want -4", n)
	}
	// midday timestamps still count whole days
	noon := time.Date(2025, 1, 3, 12, 30, 0, 0, time.UTC)
	if n := DaysBetween(a, noon); n != 2 {
		t.Errorf("DaysBetween with time component = %d, want 2", n)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 1, 5, 0, 1, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Error("SameDay should be true for same calendar day")
	}
	if SameDay(a, b.AddDate(0, 0, 1)) {
		t.Error("SameDay should be false across days")
	}
}
