package scheduling

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/timeofday"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// AppointmentType maps to the appointment_types table. Pure reference data:
// name, default duration and a calendar display color.
type AppointmentType struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	ColorCode       *string   `db:"color_code" json:"color_code,omitempty"`
	Description     *string   `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Appointment maps to the appointments table. The occupied interval is
// [StartTime, StartTime+Duration), half-open.
type Appointment struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	PatientID         uuid.UUID      `db:"patient_id" json:"patient_id"`
	PatientName       string         `db:"-" json:"patient_name,omitempty"`
	AppointmentTypeID *uuid.UUID     `db:"appointment_type_id" json:"appointment_type_id,omitempty"`
	Date              date.Date      `db:"date" json:"date"`
	StartTime         timeofday.Time `db:"start_time" json:"start_time"`
	DurationMinutes   int            `db:"duration_minutes" json:"duration_minutes"`
	Status            string         `db:"status" json:"status"`
	Notes             *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// EndTime returns the derived end of the occupied interval.
func (a *Appointment) EndTime() timeofday.Time {
	return a.StartTime.AddMinutes(a.DurationMinutes)
}

// IsScheduled reports whether the appointment still occupies its slot.
func (a *Appointment) IsScheduled() bool {
	return a.Status == StatusScheduled
}

// MarshalJSON adds the derived end_time and the 12-hour display forms used by
// calendar views.
func (a Appointment) MarshalJSON() ([]byte, error) {
	type alias Appointment
	return json.Marshal(struct {
		alias
		EndTime        timeofday.Time `json:"end_time"`
		DisplayTime    string         `json:"display_time"`
		DisplayEndTime string         `json:"display_end_time"`
	}{
		alias:          alias(a),
		EndTime:        a.EndTime(),
		DisplayTime:    a.StartTime.Display(),
		DisplayEndTime: a.EndTime().Display(),
	})
}
