package insurance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/internal/domain/billing"
	"github.com/smilecare/smilecare/internal/platform/apperr"
	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/money"
)

type mockProviderRepo struct {
	providers map[uuid.UUID]*Provider
}

func newMockProviderRepo() *mockProviderRepo {
	return &mockProviderRepo{providers: make(map[uuid.UUID]*Provider)}
}

func (m *mockProviderRepo) Create(_ context.Context, p *Provider) error {
	p.ID = uuid.New()
	cp := *p
	m.providers[p.ID] = &cp
	return nil
}

func (m *mockProviderRepo) GetByID(_ context.Context, id uuid.UUID) (*Provider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, apperr.NotFound("insurance provider")
	}
	cp := *p
	return &cp, nil
}

func (m *mockProviderRepo) Update(_ context.Context, p *Provider) error {
	if _, ok := m.providers[p.ID]; !ok {
		return apperr.NotFound("insurance provider")
	}
	cp := *p
	m.providers[p.ID] = &cp
	return nil
}

func (m *mockProviderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.providers[id]; !ok {
		return apperr.NotFound("insurance provider")
	}
	delete(m.providers, id)
	return nil
}

func (m *mockProviderRepo) List(_ context.Context, limit, offset int) ([]*Provider, int, error) {
	var out []*Provider
	for _, p := range m.providers {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockPolicyRepo struct {
	policies map[uuid.UUID]*PatientPolicy
}

func newMockPolicyRepo() *mockPolicyRepo {
	return &mockPolicyRepo{policies: make(map[uuid.UUID]*PatientPolicy)}
}

func (m *mockPolicyRepo) Create(_ context.Context, p *PatientPolicy) error {
	p.ID = uuid.New()
	cp := *p
	m.policies[p.ID] = &cp
	return nil
}

func (m *mockPolicyRepo) GetByID(_ context.Context, id uuid.UUID) (*PatientPolicy, error) {
	p, ok := m.policies[id]
	if !ok {
		return nil, apperr.NotFound("patient insurance")
	}
	cp := *p
	return &cp, nil
}

func (m *mockPolicyRepo) Update(_ context.Context, p *PatientPolicy) error {
	if _, ok := m.policies[p.ID]; !ok {
		return apperr.NotFound("patient insurance")
	}
	cp := *p
	m.policies[p.ID] = &cp
	return nil
}

func (m *mockPolicyRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.policies[id]; !ok {
		return apperr.NotFound("patient insurance")
	}
	delete(m.policies, id)
	return nil
}

func (m *mockPolicyRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*PatientPolicy, error) {
	var out []*PatientPolicy
	for _, p := range m.policies {
		if p.PatientID == patientID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockClaimRepo struct {
	claims map[uuid.UUID]*Claim
}

func newMockClaimRepo() *mockClaimRepo {
	return &mockClaimRepo{claims: make(map[uuid.UUID]*Claim)}
}

func (m *mockClaimRepo) Create(_ context.Context, c *Claim) error {
	c.ID = uuid.New()
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

func (m *mockClaimRepo) GetByID(_ context.Context, id uuid.UUID) (*Claim, error) {
	c, ok := m.claims[id]
	if !ok {
		return nil, apperr.NotFound("insurance claim")
	}
	cp := *c
	return &cp, nil
}

func (m *mockClaimRepo) Lock(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return m.GetByID(ctx, id)
}

func (m *mockClaimRepo) Update(_ context.Context, c *Claim) error {
	if _, ok := m.claims[c.ID]; !ok {
		return apperr.NotFound("insurance claim")
	}
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

func (m *mockClaimRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.claims[id]; !ok {
		return apperr.NotFound("insurance claim")
	}
	delete(m.claims, id)
	return nil
}

func (m *mockClaimRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error) {
	var out []*Claim
	for _, c := range m.claims {
		if st, ok := params["status"]; ok && c.Status != st {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockPaymentRecorder struct {
	recorded []*billing.Payment
}

func (m *mockPaymentRecorder) RecordPayment(_ context.Context, p *billing.Payment) error {
	cp := *p
	m.recorded = append(m.recorded, &cp)
	return nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type env struct {
	svc       *Service
	providers *mockProviderRepo
	claims    *mockClaimRepo
	payments  *mockPaymentRecorder
}

func newTestService() *env {
	providers := newMockProviderRepo()
	claims := newMockClaimRepo()
	payments := &mockPaymentRecorder{}
	return &env{
		svc:       NewService(providers, newMockPolicyRepo(), claims, payments, passthroughTx),
		providers: providers,
		claims:    claims,
		payments:  payments,
	}
}

func (e *env) seedProvider(t *testing.T) *Provider {
	t.Helper()
	p := &Provider{Name: "Delta Dental"}
	if err := e.svc.CreateProvider(context.Background(), p); err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return p
}

func (e *env) seedClaim(t *testing.T, status string) *Claim {
	t.Helper()
	provider := e.seedProvider(t)
	num := "CLM-1001"
	c := &Claim{
		InvoiceID:      uuid.New(),
		ProviderID:     provider.ID,
		ClaimNumber:    &num,
		SubmissionDate: date.MustParse("2025-03-01"),
		Status:         status,
		AmountClaimed:  money.MustParse("250.00"),
	}
	if err := e.svc.CreateClaim(context.Background(), c); err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	return c
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Field != field {
		t.Fatalf("field = %s, want %s", verr.Field, field)
	}
}

func TestCreateClaim_Validation(t *testing.T) {
	e := newTestService()
	provider := e.seedProvider(t)
	ctx := context.Background()

	c := &Claim{ProviderID: provider.ID, AmountClaimed: money.MustParse("100.00")}
	assertValidation(t, e.svc.CreateClaim(ctx, c), "invoice_id")

	c = &Claim{InvoiceID: uuid.New(), ProviderID: provider.ID}
	assertValidation(t, e.svc.CreateClaim(ctx, c), "amount_claimed")

	c = &Claim{InvoiceID: uuid.New(), ProviderID: uuid.New(), AmountClaimed: money.MustParse("100.00")}
	if err := e.svc.CreateClaim(ctx, c); !apperr.IsNotFound(err) {
		t.Fatalf("error = %v, want not found for unknown provider", err)
	}

	c = &Claim{InvoiceID: uuid.New(), ProviderID: provider.ID, AmountClaimed: money.MustParse("100.00")}
	if err := e.svc.CreateClaim(ctx, c); err != nil {
		t.Fatal(err)
	}
	if c.Status != ClaimDraft {
		t.Errorf("status = %s, want draft default", c.Status)
	}
	if c.SubmissionDate.IsZero() {
		t.Error("submission_date was not defaulted")
	}
}

func TestUpdateClaimStatus_PaidEmitsPayment(t *testing.T) {
	e := newTestService()
	claim := e.seedClaim(t, ClaimSubmitted)
	ctx := context.Background()

	approved := money.MustParse("275.00")
	got, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimPaid, AmountApproved: &approved})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != ClaimPaid {
		t.Fatalf("status = %s, want paid", got.Status)
	}
	// Approved above the claimed figure is accepted as-is.
	if got.AmountApproved.String() != "275.00" {
		t.Fatalf("amount_approved = %s, want 275.00", got.AmountApproved)
	}

	if len(e.payments.recorded) != 1 {
		t.Fatalf("recorded %d payments, want 1", len(e.payments.recorded))
	}
	p := e.payments.recorded[0]
	if p.InvoiceID != claim.InvoiceID {
		t.Errorf("payment invoice = %s, want %s", p.InvoiceID, claim.InvoiceID)
	}
	if p.Amount.String() != "275.00" {
		t.Errorf("payment amount = %s, want 275.00", p.Amount)
	}
	if p.Method != billing.MethodInsurance {
		t.Errorf("payment method = %s, want insurance", p.Method)
	}
	if p.Status != billing.PaymentCompleted {
		t.Errorf("payment status = %s, want completed", p.Status)
	}
}

func TestUpdateClaimStatus_PaymentAtMostOnce(t *testing.T) {
	e := newTestService()
	claim := e.seedClaim(t, ClaimSubmitted)
	ctx := context.Background()

	approved := money.MustParse("250.00")
	if _, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimPaid, AmountApproved: &approved}); err != nil {
		t.Fatal(err)
	}
	// Repeating the same transition must not post a second payment.
	if _, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimPaid}); err != nil {
		t.Fatal(err)
	}
	if len(e.payments.recorded) != 1 {
		t.Fatalf("recorded %d payments, want exactly 1", len(e.payments.recorded))
	}
}

func TestUpdateClaimStatus_PaidWithoutApprovalEmitsNothing(t *testing.T) {
	e := newTestService()
	claim := e.seedClaim(t, ClaimSubmitted)

	if _, err := e.svc.UpdateClaimStatus(context.Background(), claim.ID, StatusUpdate{Status: ClaimPaid}); err != nil {
		t.Fatal(err)
	}
	if len(e.payments.recorded) != 0 {
		t.Fatalf("recorded %d payments, want 0 with zero approval", len(e.payments.recorded))
	}
}

func TestUpdateClaimStatus_DeniedRequiresReason(t *testing.T) {
	e := newTestService()
	claim := e.seedClaim(t, ClaimSubmitted)
	ctx := context.Background()

	_, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimDenied})
	assertValidation(t, err, "denial_reason")

	reason := "procedure not covered under plan"
	got, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimDenied, DenialReason: &reason})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != ClaimDenied {
		t.Fatalf("status = %s, want denied", got.Status)
	}
}

func TestUpdateClaimStatus_RejectsBadTransition(t *testing.T) {
	e := newTestService()
	claim := e.seedClaim(t, ClaimDraft)
	ctx := context.Background()

	// A draft claim must be submitted before it can be paid.
	_, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimPaid})
	assertValidation(t, err, "status")

	paid := e.seedClaim(t, ClaimSubmitted)
	approved := money.MustParse("100.00")
	if _, err := e.svc.UpdateClaimStatus(ctx, paid.ID, StatusUpdate{Status: ClaimPaid, AmountApproved: &approved}); err != nil {
		t.Fatal(err)
	}
	_, err = e.svc.UpdateClaimStatus(ctx, paid.ID, StatusUpdate{Status: ClaimSubmitted})
	assertValidation(t, err, "status")
}

func TestUpdateClaimStatus_DeniedCanBeResubmitted(t *testing.T) {
	e := newTestService()
	claim := e.seedClaim(t, ClaimSubmitted)
	ctx := context.Background()

	reason := "missing x-rays"
	if _, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimDenied, DenialReason: &reason}); err != nil {
		t.Fatal(err)
	}
	got, err := e.svc.UpdateClaimStatus(ctx, claim.ID, StatusUpdate{Status: ClaimSubmitted})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != ClaimSubmitted {
		t.Fatalf("status = %s, want submitted", got.Status)
	}
}

func TestUpdateClaim_CannotBypassStatusFlow(t *testing.T) {
	e := newTestService()
	claim := e.seedClaim(t, ClaimDraft)
	ctx := context.Background()

	upd := *claim
	upd.Status = ClaimPaid
	if err := e.svc.UpdateClaim(ctx, &upd); err != nil {
		t.Fatal(err)
	}
	stored, _ := e.svc.GetClaim(ctx, claim.ID)
	if stored.Status != ClaimDraft {
		t.Fatalf("status = %s, want draft preserved on field edit", stored.Status)
	}
	if len(e.payments.recorded) != 0 {
		t.Fatal("field edit emitted a payment")
	}
}

func TestCreatePolicy_Validation(t *testing.T) {
	e := newTestService()
	provider := e.seedProvider(t)
	ctx := context.Background()

	p := &PatientPolicy{
		PatientID:     uuid.New(),
		ProviderID:    provider.ID,
		PolicyNumber:  "POL-88421",
		CoverageStart: date.MustParse("2025-01-01"),
	}
	if err := e.svc.CreatePolicy(ctx, p); err != nil {
		t.Fatal(err)
	}

	bad := &PatientPolicy{PatientID: uuid.New(), ProviderID: provider.ID, CoverageStart: date.MustParse("2025-01-01")}
	assertValidation(t, e.svc.CreatePolicy(ctx, bad), "policy_number")

	end := date.MustParse("2024-12-01")
	bad = &PatientPolicy{
		PatientID:     uuid.New(),
		ProviderID:    provider.ID,
		PolicyNumber:  "POL-1",
		CoverageStart: date.MustParse("2025-01-01"),
		CoverageEnd:   &end,
	}
	assertValidation(t, e.svc.CreatePolicy(ctx, bad), "coverage_end_date")
}
