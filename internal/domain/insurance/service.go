package insurance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/internal/domain/billing"
	"github.com/smilecare/smilecare/internal/platform/apperr"
	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/money"
)

// TxRunner runs fn inside a database transaction. Claim status updates and
// the payment they may emit must be atomic.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PaymentRecorder posts a payment against an invoice. Satisfied by
// billing.Service; its settle logic runs in the caller's transaction.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, p *billing.Payment) error
}

var validClaimStatuses = map[string]bool{
	ClaimDraft:         true,
	ClaimSubmitted:     true,
	ClaimInProcess:     true,
	ClaimDenied:        true,
	ClaimPartiallyPaid: true,
	ClaimPaid:          true,
}

// Service implements the insurance operations over the repositories.
type Service struct {
	providers ProviderRepository
	policies  PolicyRepository
	claims    ClaimRepository
	payments  PaymentRecorder
	tx        TxRunner
}

func NewService(providers ProviderRepository, policies PolicyRepository, claims ClaimRepository, payments PaymentRecorder, tx TxRunner) *Service {
	return &Service{providers: providers, policies: policies, claims: claims, payments: payments, tx: tx}
}

// =========== Providers ===========

func (s *Service) CreateProvider(ctx context.Context, p *Provider) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("name", "is required")
	}
	return s.providers.Create(ctx, p)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) UpdateProvider(ctx context.Context, p *Provider) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("name", "is required")
	}
	if _, err := s.providers.GetByID(ctx, p.ID); err != nil {
		return err
	}
	return s.providers.Update(ctx, p)
}

func (s *Service) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	return s.providers.Delete(ctx, id)
}

func (s *Service) ListProviders(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, limit, offset)
}

// =========== Patient policies ===========

func validatePolicy(p *PatientPolicy) error {
	if p.PatientID == uuid.Nil {
		return apperr.Validation("patient_id", "is required")
	}
	if p.ProviderID == uuid.Nil {
		return apperr.Validation("provider_id", "is required")
	}
	if strings.TrimSpace(p.PolicyNumber) == "" {
		return apperr.Validation("policy_number", "is required")
	}
	if p.CoverageStart.IsZero() {
		return apperr.Validation("coverage_start_date", "is required")
	}
	if p.CoverageEnd != nil && p.CoverageEnd.Before(p.CoverageStart) {
		return apperr.Validation("coverage_end_date", "must not precede coverage_start_date")
	}
	return nil
}

func (s *Service) CreatePolicy(ctx context.Context, p *PatientPolicy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}
	if _, err := s.providers.GetByID(ctx, p.ProviderID); err != nil {
		return err
	}
	return s.policies.Create(ctx, p)
}

func (s *Service) GetPolicy(ctx context.Context, id uuid.UUID) (*PatientPolicy, error) {
	return s.policies.GetByID(ctx, id)
}

func (s *Service) UpdatePolicy(ctx context.Context, p *PatientPolicy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}
	current, err := s.policies.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.PatientID = current.PatientID
	return s.policies.Update(ctx, p)
}

func (s *Service) DeletePolicy(ctx context.Context, id uuid.UUID) error {
	return s.policies.Delete(ctx, id)
}

func (s *Service) PoliciesByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientPolicy, error) {
	return s.policies.ListByPatient(ctx, patientID)
}

// =========== Claims ===========

func validateClaim(c *Claim) error {
	if c.InvoiceID == uuid.Nil {
		return apperr.Validation("invoice_id", "is required")
	}
	if c.ProviderID == uuid.Nil {
		return apperr.Validation("provider_id", "is required")
	}
	if !c.AmountClaimed.IsPositive() {
		return apperr.Validation("amount_claimed", "must be positive")
	}
	if c.Status == "" {
		c.Status = ClaimDraft
	}
	if !validClaimStatuses[c.Status] {
		return apperr.Validation("status", "must be one of draft, submitted, in_process, denied, partially_paid, paid")
	}
	if c.SubmissionDate.IsZero() {
		c.SubmissionDate = date.Today()
	}
	return nil
}

func (s *Service) CreateClaim(ctx context.Context, c *Claim) error {
	if err := validateClaim(c); err != nil {
		return err
	}
	if _, err := s.providers.GetByID(ctx, c.ProviderID); err != nil {
		return err
	}
	return s.claims.Create(ctx, c)
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.claims.GetByID(ctx, id)
}

func (s *Service) UpdateClaim(ctx context.Context, c *Claim) error {
	if err := validateClaim(c); err != nil {
		return err
	}
	current, err := s.claims.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	// Field edits only; status moves go through UpdateClaimStatus so the
	// transition rules and payment emission cannot be bypassed.
	c.Status = current.Status
	c.InvoiceID = current.InvoiceID
	return s.claims.Update(ctx, c)
}

func (s *Service) DeleteClaim(ctx context.Context, id uuid.UUID) error {
	return s.claims.Delete(ctx, id)
}

func (s *Service) SearchClaims(ctx context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error) {
	return s.claims.Search(ctx, params, limit, offset)
}

// StatusUpdate is the payload for UpdateClaimStatus. Nil fields are left
// unchanged.
type StatusUpdate struct {
	Status         string        `json:"status"`
	AmountApproved *money.Amount `json:"amount_approved,omitempty"`
	DenialReason   *string       `json:"denial_reason,omitempty"`
}

// UpdateClaimStatus moves a claim through its lifecycle. A transition to
// paid with a positive approved amount posts one completed insurance payment
// against the claim's invoice. The payment is emitted only when the claim
// was not already paid, so repeating the call cannot double-pay, and it runs
// in the same transaction as the claim update.
func (s *Service) UpdateClaimStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*Claim, error) {
	if upd.Status != "" && !validClaimStatuses[upd.Status] {
		return nil, apperr.Validation("status", "must be one of draft, submitted, in_process, denied, partially_paid, paid")
	}
	var claim *Claim
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		claim, err = s.claims.Lock(ctx, id)
		if err != nil {
			return err
		}
		prev := claim.Status

		if upd.Status != "" && upd.Status != prev {
			if !CanTransition(prev, upd.Status) {
				return apperr.Validation("status", fmt.Sprintf("cannot change from %s to %s", prev, upd.Status))
			}
			claim.Status = upd.Status
		}
		if upd.AmountApproved != nil {
			claim.AmountApproved = *upd.AmountApproved
		}
		if upd.DenialReason != nil {
			claim.DenialReason = upd.DenialReason
		}
		if claim.Status == ClaimDenied && (claim.DenialReason == nil || strings.TrimSpace(*claim.DenialReason) == "") {
			return apperr.Validation("denial_reason", "is required when denying a claim")
		}
		if err := s.claims.Update(ctx, claim); err != nil {
			return err
		}

		if claim.Status != ClaimPaid || prev == ClaimPaid || !claim.AmountApproved.IsPositive() {
			return nil
		}
		notes := "Insurance payment for claim"
		if claim.ClaimNumber != nil {
			notes = fmt.Sprintf("Insurance payment for claim %s", *claim.ClaimNumber)
		}
		return s.payments.RecordPayment(ctx, &billing.Payment{
			InvoiceID:   claim.InvoiceID,
			PaymentDate: date.Today(),
			Amount:      claim.AmountApproved,
			Method:      billing.MethodInsurance,
			Status:      billing.PaymentCompleted,
			Notes:       &notes,
		})
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}
