package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/money"
)

type ServiceRepository interface {
	Create(ctx context.Context, s *DentalService) error
	GetByID(ctx context.Context, id uuid.UUID) (*DentalService, error)
	GetByCode(ctx context.Context, code string) (*DentalService, error)
	Update(ctx context.Context, s *DentalService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*DentalService, int, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// Lock loads the invoice row with a row-level lock; must run inside a
	// transaction. Serializes concurrent item and payment writes against the
	// same invoice.
	Lock(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error)
	Stats(ctx context.Context, from, to date.Date) (*Stats, error)
}

type ItemRepository interface {
	Create(ctx context.Context, it *InvoiceItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*InvoiceItem, error)
	Update(ctx context.Context, it *InvoiceItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*InvoiceItem, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Payment, int, error)
	SumCompleted(ctx context.Context, invoiceID uuid.UUID) (money.Amount, error)
}
