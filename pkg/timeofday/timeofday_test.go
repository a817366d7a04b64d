package timeofday

import (
	"encoding/json"
	"testing"
)

func TestParseShortForm(t *testing.T) {
	tm, err := Parse("09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tm.String() != "09:00:00" {
		t.Errorf("expected 09:00:00, got %s", tm.String())
	}
}

func TestParseLongForm(t *testing.T) {
	tm, err := Parse("14:30:15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tm.Hour() != 14 || tm.Minute() != 30 || tm.Second() != 15 {
		t.Errorf("unexpected components: %d %d %d", tm.Hour(), tm.Minute(), tm.Second())
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "25:00", "09:61", "nine"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestAddMinutes(t *testing.T) {
	tm := MustParse("10:00").AddMinutes(45)
	if tm.String() != "10:45:00" {
		t.Errorf("expected 10:45:00, got %s", tm.String())
	}
}

func TestAddMinutesDoesNotWrap(t *testing.T) {
	late := MustParse("23:30").AddMinutes(60)
	if !late.After(MustParse("23:59")) {
		t.Error("expected time past midnight to compare greater")
	}
}

func TestDisplay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"09:00", "09:00 AM"},
		{"12:00", "12:00 PM"},
		{"00:15", "12:15 AM"},
		{"17:30", "05:30 PM"},
	}
	for _, c := range cases {
		if got := MustParse(c.in).Display(); got != c.want {
			t.Errorf("Display(%s): expected %s, got %s", c.in, c.want, got)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(MustParse("13:05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `"13:05:00"` {
		t.Errorf("expected quoted 13:05:00, got %s", b)
	}
	var tm Time
	if err := json.Unmarshal([]byte(`"08:30:00"`), &tm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tm.String() != "08:30:00" {
		t.Errorf("expected 08:30:00, got %s", tm.String())
	}
}

func TestScan(t *testing.T) {
	var tm Time
	if err := tm.Scan("11:45:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tm.String() != "11:45:00" {
		t.Errorf("expected 11:45:00, got %s", tm.String())
	}
}
