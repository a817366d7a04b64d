package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/internal/platform/apperr"
	"github.com/smilecare/smilecare/pkg/date"
)

// TxRunner runs fn inside a database transaction. Item and payment writes
// touch the parent invoice's derived columns, so they must be atomic with
// the invoice update.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

var validMethods = map[string]bool{
	MethodCash:      true,
	MethodCard:      true,
	MethodCheck:     true,
	MethodTransfer:  true,
	MethodInsurance: true,
}

var validPaymentStatuses = map[string]bool{
	PaymentPending:   true,
	PaymentCompleted: true,
	PaymentFailed:    true,
	PaymentRefunded:  true,
}

// Service implements the billing operations over the repositories.
type Service struct {
	services ServiceRepository
	invoices InvoiceRepository
	items    ItemRepository
	payments PaymentRepository
	tx       TxRunner
}

func NewService(services ServiceRepository, invoices InvoiceRepository, items ItemRepository, payments PaymentRepository, tx TxRunner) *Service {
	return &Service{services: services, invoices: invoices, items: items, payments: payments, tx: tx}
}

// =========== Dental services ===========

func (s *Service) validateService(ctx context.Context, svc *DentalService) error {
	if strings.TrimSpace(svc.Code) == "" {
		return apperr.Validation("code", "is required")
	}
	if strings.TrimSpace(svc.Name) == "" {
		return apperr.Validation("name", "is required")
	}
	if svc.DefaultPrice.IsNegative() {
		return apperr.Validation("default_price", "must not be negative")
	}
	existing, err := s.services.GetByCode(ctx, svc.Code)
	if err != nil && !apperr.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.ID != svc.ID {
		return apperr.Validation("code", "already used by another service")
	}
	return nil
}

func (s *Service) CreateDentalService(ctx context.Context, svc *DentalService) error {
	if err := s.validateService(ctx, svc); err != nil {
		return err
	}
	return s.services.Create(ctx, svc)
}

func (s *Service) GetDentalService(ctx context.Context, id uuid.UUID) (*DentalService, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) UpdateDentalService(ctx context.Context, svc *DentalService) error {
	if _, err := s.services.GetByID(ctx, svc.ID); err != nil {
		return err
	}
	if err := s.validateService(ctx, svc); err != nil {
		return err
	}
	return s.services.Update(ctx, svc)
}

func (s *Service) DeleteDentalService(ctx context.Context, id uuid.UUID) error {
	return s.services.Delete(ctx, id)
}

func (s *Service) ListDentalServices(ctx context.Context, activeOnly bool, limit, offset int) ([]*DentalService, int, error) {
	return s.services.List(ctx, activeOnly, limit, offset)
}

// =========== Invoices ===========

func validateInvoice(inv *Invoice) error {
	if inv.PatientID == uuid.Nil {
		return apperr.Validation("patient_id", "is required")
	}
	if inv.IssueDate.IsZero() {
		return apperr.Validation("issue_date", "is required")
	}
	if inv.DueDate.IsZero() {
		return apperr.Validation("due_date", "is required")
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return apperr.Validation("due_date", "must not precede issue_date")
	}
	if inv.Status == "" {
		inv.Status = InvoiceDraft
	}
	if _, ok := invoiceTransitions[inv.Status]; !ok {
		return apperr.Validation("status", "must be one of draft, sent, paid, overdue, cancelled")
	}
	return nil
}

func newInvoiceNumber(issued date.Date) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("INV-%04d%02d%02d-%s", issued.Year(), issued.Month(), issued.Day(), suffix)
}

func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if err := validateInvoice(inv); err != nil {
		return err
	}
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		inv.InvoiceNumber = newInvoiceNumber(inv.IssueDate)
	}
	// No items yet; total derives from the provided subtotal.
	inv.Total = inv.Subtotal.Add(inv.Subtotal.ApplyRate(inv.TaxRate)).Sub(inv.Discount)
	return s.invoices.Create(ctx, inv)
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) UpdateInvoice(ctx context.Context, inv *Invoice) error {
	if err := validateInvoice(inv); err != nil {
		return err
	}
	return s.tx(ctx, func(ctx context.Context) error {
		current, err := s.invoices.Lock(ctx, inv.ID)
		if err != nil {
			return err
		}
		if !CanTransition(current.Status, inv.Status) {
			return apperr.Validation("status", fmt.Sprintf("cannot change from %s to %s", current.Status, inv.Status))
		}
		inv.InvoiceNumber = current.InvoiceNumber
		inv.CreatedBy = current.CreatedBy
		items, err := s.items.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		RecomputeTotals(inv, items)
		return s.invoices.Update(ctx, inv)
	})
}

func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	return s.invoices.Delete(ctx, id)
}

func (s *Service) SearchInvoices(ctx context.Context, params map[string]string, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.Search(ctx, params, limit, offset)
}

// MarkInvoicePaid forces an invoice to paid regardless of its payment sum,
// for write-offs and out-of-band settlements. The transition table still
// applies.
func (s *Service) MarkInvoicePaid(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv *Invoice
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.Lock(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status == InvoicePaid {
			return nil
		}
		if !CanTransition(inv.Status, InvoicePaid) {
			return apperr.Validation("status", fmt.Sprintf("cannot change from %s to %s", inv.Status, InvoicePaid))
		}
		inv.Status = InvoicePaid
		return s.invoices.Update(ctx, inv)
	})
	return inv, err
}

// MarkInvoiceOverdue flips an unsettled invoice past its due date to
// overdue. No-op when the due date has not passed or the status is final.
func (s *Service) MarkInvoiceOverdue(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv *Invoice
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.Lock(ctx, id)
		if err != nil {
			return err
		}
		if !MarkOverdue(inv, date.Today()) {
			return nil
		}
		return s.invoices.Update(ctx, inv)
	})
	return inv, err
}

// MonthStats reports the dashboard aggregates for the month containing
// today.
func (s *Service) MonthStats(ctx context.Context) (*Stats, error) {
	today := date.Today()
	from := date.New(today.Year(), today.Month(), 1)
	next := from.AddDays(32)
	to := date.New(next.Year(), next.Month(), 1).AddDays(-1)
	return s.invoices.Stats(ctx, from, to)
}

// =========== Invoice items ===========

func validateItem(it *InvoiceItem) error {
	if it.InvoiceID == uuid.Nil {
		return apperr.Validation("invoice_id", "is required")
	}
	if strings.TrimSpace(it.Description) == "" {
		return apperr.Validation("description", "is required")
	}
	if it.Quantity <= 0 {
		return apperr.Validation("quantity", "must be positive")
	}
	if it.UnitPrice.IsNegative() {
		return apperr.Validation("unit_price", "must not be negative")
	}
	return nil
}

// refreshInvoiceTotals recomputes and persists the locked invoice's derived
// amounts from its current items. Callers must already hold the row lock.
func (s *Service) refreshInvoiceTotals(ctx context.Context, inv *Invoice) error {
	items, err := s.items.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}
	RecomputeTotals(inv, items)
	return s.invoices.Update(ctx, inv)
}

func (s *Service) CreateItem(ctx context.Context, it *InvoiceItem) error {
	if err := validateItem(it); err != nil {
		return err
	}
	it.TotalPrice = ItemTotal(it)
	return s.tx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.Lock(ctx, it.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.items.Create(ctx, it); err != nil {
			return err
		}
		return s.refreshInvoiceTotals(ctx, inv)
	})
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*InvoiceItem, error) {
	return s.items.GetByID(ctx, id)
}

func (s *Service) UpdateItem(ctx context.Context, it *InvoiceItem) error {
	if err := validateItem(it); err != nil {
		return err
	}
	current, err := s.items.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	// An item never moves between invoices.
	it.InvoiceID = current.InvoiceID
	it.TotalPrice = ItemTotal(it)
	return s.tx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.Lock(ctx, it.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.items.Update(ctx, it); err != nil {
			return err
		}
		return s.refreshInvoiceTotals(ctx, inv)
	})
}

func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.tx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.Lock(ctx, it.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.items.Delete(ctx, id); err != nil {
			return err
		}
		return s.refreshInvoiceTotals(ctx, inv)
	})
}

func (s *Service) ListItems(ctx context.Context, invoiceID uuid.UUID) ([]*InvoiceItem, error) {
	return s.items.ListByInvoice(ctx, invoiceID)
}

// =========== Payments ===========

func validatePayment(p *Payment) error {
	if p.InvoiceID == uuid.Nil {
		return apperr.Validation("invoice_id", "is required")
	}
	if p.PaymentDate.IsZero() {
		return apperr.Validation("payment_date", "is required")
	}
	if !p.Amount.IsPositive() {
		return apperr.Validation("amount", "must be positive")
	}
	if !validMethods[p.Method] {
		return apperr.Validation("method", "must be one of cash, card, check, transfer, insurance")
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if !validPaymentStatuses[p.Status] {
		return apperr.Validation("status", "must be one of pending, completed, failed, refunded")
	}
	return nil
}

// settleInvoice sums the invoice's completed payments and flips it to paid
// when they cover the total. Callers must already hold the row lock.
func (s *Service) settleInvoice(ctx context.Context, inv *Invoice) error {
	sum, err := s.payments.SumCompleted(ctx, inv.ID)
	if err != nil {
		return err
	}
	if !ApplyPayment(inv, sum) {
		return nil
	}
	return s.invoices.Update(ctx, inv)
}

func (s *Service) RecordPayment(ctx context.Context, p *Payment) error {
	if err := validatePayment(p); err != nil {
		return err
	}
	return s.tx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.Lock(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return err
		}
		if p.Status != PaymentCompleted {
			return nil
		}
		return s.settleInvoice(ctx, inv)
	})
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) UpdatePayment(ctx context.Context, p *Payment) error {
	if err := validatePayment(p); err != nil {
		return err
	}
	current, err := s.payments.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.InvoiceID = current.InvoiceID
	return s.tx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.Lock(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.payments.Update(ctx, p); err != nil {
			return err
		}
		if p.Status != PaymentCompleted {
			return nil
		}
		return s.settleInvoice(ctx, inv)
	})
}

func (s *Service) DeletePayment(ctx context.Context, id uuid.UUID) error {
	return s.payments.Delete(ctx, id)
}

func (s *Service) SearchPayments(ctx context.Context, params map[string]string, limit, offset int) ([]*Payment, int, error) {
	return s.payments.Search(ctx, params, limit, offset)
}

// MarkPaymentCompleted transitions a payment to completed and settles the
// invoice when the completed sum covers its total. Completing an already
// completed payment is a no-op.
func (s *Service) MarkPaymentCompleted(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var p *Payment
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.payments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == PaymentCompleted {
			return nil
		}
		inv, err := s.invoices.Lock(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		p.Status = PaymentCompleted
		if err := s.payments.Update(ctx, p); err != nil {
			return err
		}
		return s.settleInvoice(ctx, inv)
	})
	return p, err
}
