package scheduling

import (
	"github.com/google/uuid"

	"github.com/smilecare/smilecare/internal/platform/apperr"
	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/timeofday"
)

// DayHours is one weekday's opening window.
type DayHours struct {
	Open  timeofday.Time
	Close timeofday.Time
}

// WeeklyHours maps weekday (0=Monday..6=Sunday) to opening hours. A missing
// key means the clinic is closed that day.
type WeeklyHours map[int]DayHours

// DefaultWeeklyHours returns the standard clinic week: Mon-Fri 09:00-17:00,
// Sat 09:00-13:00, Sun closed.
func DefaultWeeklyHours() WeeklyHours {
	weekday := DayHours{
		Open:  timeofday.MustParse("09:00"),
		Close: timeofday.MustParse("17:00"),
	}
	return WeeklyHours{
		0: weekday,
		1: weekday,
		2: weekday,
		3: weekday,
		4: weekday,
		5: {Open: timeofday.MustParse("09:00"), Close: timeofday.MustParse("13:00")},
	}
}

// Window is a time-of-day interval [Start, End) blocked off regardless of
// bookings, such as a lunch break.
type Window struct {
	Start timeofday.Time `json:"start"`
	End   timeofday.Time `json:"end"`
}

// Overlaps tests two half-open intervals [aStart,aEnd) and [bStart,bEnd).
// Intervals that merely touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd timeofday.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// AvailableSlots computes the open slot start times for a date. Candidates are
// generated every granularity minutes from open to close; a candidate is
// removed when its own [start, start+granularity) interval overlaps an
// exclusion window or any scheduled appointment's occupied interval. The
// second return value is false when the clinic is closed that day.
func AvailableSlots(d date.Date, hours WeeklyHours, granularityMin int, exclusions []Window, appts []*Appointment) ([]timeofday.Time, bool) {
	day, open := hours[d.Weekday()]
	if !open {
		return nil, false
	}

	slots := []timeofday.Time{}
	for start := day.Open; !start.AddMinutes(granularityMin).After(day.Close); start = start.AddMinutes(granularityMin) {
		end := start.AddMinutes(granularityMin)

		blocked := false
		for _, w := range exclusions {
			if Overlaps(start, end, w.Start, w.End) {
				blocked = true
				break
			}
		}
		if !blocked {
			for _, a := range appts {
				if a.IsScheduled() && Overlaps(start, end, a.StartTime, a.EndTime()) {
					blocked = true
					break
				}
			}
		}
		if !blocked {
			slots = append(slots, start)
		}
	}
	return slots, true
}

// CheckConflict tests a candidate booking against the scheduled appointments
// already on its date. excludeID skips the appointment being updated in place.
// Returns a ConflictError naming the colliding patient, or nil.
func CheckConflict(candidate *Appointment, existing []*Appointment, excludeID uuid.UUID) error {
	for _, a := range existing {
		if a.ID == excludeID || !a.IsScheduled() {
			continue
		}
		if Overlaps(candidate.StartTime, candidate.EndTime(), a.StartTime, a.EndTime()) {
			who := a.PatientName
			if who == "" {
				who = "another patient"
			}
			return apperr.Conflict("time slot conflicts with an appointment for %s (%s - %s)",
				who, a.StartTime.Display(), a.EndTime().Display())
		}
	}
	return nil
}
