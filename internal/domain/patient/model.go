package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/pkg/date"
)

// Preferred visit times a patient can pick at registration.
const (
	PreferredMorning   = "morning"
	PreferredAfternoon = "afternoon"
	PreferredEvening   = "evening"
)

// Patient maps to the patients table.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	DateOfBirth           date.Date  `db:"date_of_birth" json:"date_of_birth"`
	Email                 *string    `db:"email" json:"email,omitempty"`
	Phone                 *string    `db:"phone" json:"phone,omitempty"`
	Address               *string    `db:"address" json:"address,omitempty"`
	EmergencyContactName  *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	PreferredTime         *string    `db:"preferred_time" json:"preferred_time,omitempty"`
	LastVisit             *date.Date `db:"last_visit" json:"last_visit,omitempty"`
	Notes                 *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
