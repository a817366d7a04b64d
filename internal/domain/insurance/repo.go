package insurance

import (
	"context"

	"github.com/google/uuid"
)

type ProviderRepository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	Update(ctx context.Context, p *Provider) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Provider, int, error)
}

type PolicyRepository interface {
	Create(ctx context.Context, p *PatientPolicy) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientPolicy, error)
	Update(ctx context.Context, p *PatientPolicy) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientPolicy, error)
}

type ClaimRepository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	// Lock loads the claim row with a row-level lock; must run inside a
	// transaction. Serializes concurrent status updates so the payment
	// emitted on transition to paid happens at most once.
	Lock(ctx context.Context, id uuid.UUID) (*Claim, error)
	Update(ctx context.Context, c *Claim) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Claim, int, error)
}
