package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	d, err := Parse("2025-03-17")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.March || d.Day() != 17 {
		t.Errorf("unexpected parts: %d-%d-%d", d.Year(), d.Month(), d.Day())
	}
	if d.String() != "2025-03-17" {
		t.Errorf("expected 2025-03-17, got %s", d.String())
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "17/03/2025", "2025-3-17", "2025-13-01", "yesterday"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}

func TestWeekday_MondayIsZero(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2025-03-17", 0}, // Monday
		{"2025-03-21", 4}, // Friday
		{"2025-03-22", 5}, // Saturday
		{"2025-03-23", 6}, // Sunday
	}
	for _, tc := range cases {
		d := MustParse(tc.date)
		if d.Weekday() != tc.want {
			t.Errorf("%s: expected weekday %d, got %d", tc.date, tc.want, d.Weekday())
		}
	}
}

func TestAddDays(t *testing.T) {
	d := MustParse("2025-01-30").AddDays(3)
	if d.String() != "2025-02-02" {
		t.Errorf("expected 2025-02-02, got %s", d.String())
	}
}

func TestComparisons(t *testing.T) {
	a := MustParse("2025-06-01")
	b := MustParse("2025-06-02")
	if !a.Before(b) || !b.After(a) || a.Equal(b) {
		t.Error("comparison operators inconsistent")
	}
	if !a.Equal(MustParse("2025-06-01")) {
		t.Error("expected equal dates")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := MustParse("2025-12-05")
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(b) != `"2025-12-05"` {
		t.Errorf("expected quoted date, got %s", b)
	}

	var out Date
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !out.Equal(d) {
		t.Errorf("round trip mismatch: %s", out)
	}
}

func TestJSON_Null(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte("null"), &d); err != nil {
		t.Fatalf("Unmarshal(null) error: %v", err)
	}
	if !d.IsZero() {
		t.Error("expected zero date from null")
	}

	b, _ := json.Marshal(Date{})
	if string(b) != "null" {
		t.Errorf("expected null for zero date, got %s", b)
	}
}

func TestScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, 7, 4, 15, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Scan(time.Time) error: %v", err)
	}
	if d.String() != "2025-07-04" {
		t.Errorf("expected 2025-07-04, got %s", d.String())
	}

	if err := d.Scan("2024-02-29"); err != nil {
		t.Fatalf("Scan(string) error: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", d.String())
	}
}
