// Package timeofday provides a wall-clock time without a date, used for
// appointment start/end times. The wire form is 24-hour "HH:MM:SS"; a
// 12-hour "hh:mm AM/PM" form exists for display endpoints only.
package timeofday

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Time is a time of day with second precision. The zero value is midnight.
type Time struct {
	secs int // seconds since midnight, 0..86399
}

// New builds a Time from hour, minute and second.
func New(hour, min, sec int) (Time, error) {
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return Time{}, fmt.Errorf("invalid time of day %02d:%02d:%02d", hour, min, sec)
	}
	return Time{secs: hour*3600 + min*60 + sec}, nil
}

// Parse accepts "HH:MM" or "HH:MM:SS".
func Parse(s string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Time{}, fmt.Errorf("invalid time %q: want HH:MM or HH:MM:SS", s)
	}
	var h, m, sec int
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &h, &m); err != nil {
		return Time{}, fmt.Errorf("invalid time %q", s)
	}
	if len(parts) == 3 {
		if _, err := fmt.Sscanf(parts[2], "%d", &sec); err != nil {
			return Time{}, fmt.Errorf("invalid time %q", s)
		}
	}
	return New(h, m, sec)
}

// MustParse is Parse for fixtures; it panics on bad input.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Time) Hour() int   { return t.secs / 3600 }
func (t Time) Minute() int { return (t.secs % 3600) / 60 }
func (t Time) Second() int { return t.secs % 60 }

// AddMinutes returns the time shifted forward. The result is not wrapped at
// midnight: an appointment running past 24:00 compares greater than any same
// day time, which keeps interval math monotonic.
func (t Time) AddMinutes(mins int) Time {
	return Time{secs: t.secs + mins*60}
}

func (t Time) Before(u Time) bool { return t.secs < u.secs }
func (t Time) After(u Time) bool  { return t.secs > u.secs }
func (t Time) Equal(u Time) bool  { return t.secs == u.secs }

// String renders the 24-hour wire form "HH:MM:SS".
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Display renders the 12-hour presentation form, e.g. "09:30 AM".
func (t Time) Display() string {
	h := t.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h12, t.Minute(), suffix)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner; repositories select time columns cast to text.
func (t *Time) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timeofday.Time", src)
	}
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	return t.String(), nil
}
