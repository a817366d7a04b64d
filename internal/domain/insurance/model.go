package insurance

import (
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/money"
)

// Claim statuses.
const (
	ClaimDraft         = "draft"
	ClaimSubmitted     = "submitted"
	ClaimInProcess     = "in_process"
	ClaimDenied        = "denied"
	ClaimPartiallyPaid = "partially_paid"
	ClaimPaid          = "paid"
)

// Provider maps to the insurance_providers table.
type Provider struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson *string   `db:"contact_person" json:"contact_person,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PatientPolicy maps to the patient_insurances table: one patient's coverage
// under one provider.
type PatientPolicy struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID        uuid.UUID  `db:"provider_id" json:"provider_id"`
	PolicyNumber      string     `db:"policy_number" json:"policy_number"`
	GroupNumber       *string    `db:"group_number" json:"group_number,omitempty"`
	PrimaryHolderName *string    `db:"primary_holder_name" json:"primary_holder_name,omitempty"`
	Relationship      *string    `db:"relationship_to_patient" json:"relationship_to_patient,omitempty"`
	CoverageStart     date.Date  `db:"coverage_start_date" json:"coverage_start_date"`
	CoverageEnd       *date.Date `db:"coverage_end_date" json:"coverage_end_date,omitempty"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Claim maps to the insurance_claims table. AmountApproved may exceed
// AmountClaimed; carriers sometimes settle above the claimed figure and the
// ledger records what they actually pay.
type Claim struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	InvoiceID      uuid.UUID    `db:"invoice_id" json:"invoice_id"`
	ProviderID     uuid.UUID    `db:"provider_id" json:"provider_id"`
	ClaimNumber    *string      `db:"claim_number" json:"claim_number,omitempty"`
	SubmissionDate date.Date    `db:"submission_date" json:"submission_date"`
	Status         string       `db:"status" json:"status"`
	AmountClaimed  money.Amount `db:"amount_claimed" json:"amount_claimed"`
	AmountApproved money.Amount `db:"amount_approved" json:"amount_approved"`
	DenialReason   *string      `db:"denial_reason" json:"denial_reason,omitempty"`
	Notes          *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}
