package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/money"
)

// Invoice statuses.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Payment methods.
const (
	MethodCash      = "cash"
	MethodCard      = "card"
	MethodCheck     = "check"
	MethodTransfer  = "transfer"
	MethodInsurance = "insurance"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// DentalService maps to the dental_services table. Reference data: a price
// list entry.
type DentalService struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Code         string       `db:"code" json:"code"`
	Name         string       `db:"name" json:"name"`
	Description  *string      `db:"description" json:"description,omitempty"`
	DefaultPrice money.Amount `db:"default_price" json:"default_price"`
	IsActive     bool         `db:"is_active" json:"is_active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// Invoice maps to the invoices table. It is the aggregation root for its
// items and payments; Subtotal and Total are derived and recomputed on every
// item save.
type Invoice struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	InvoiceNumber string       `db:"invoice_number" json:"invoice_number"`
	PatientID     uuid.UUID    `db:"patient_id" json:"patient_id"`
	CreatedBy     *uuid.UUID   `db:"created_by" json:"created_by,omitempty"`
	IssueDate     date.Date    `db:"issue_date" json:"issue_date"`
	DueDate       date.Date    `db:"due_date" json:"due_date"`
	Status        string       `db:"status" json:"status"`
	Subtotal      money.Amount `db:"subtotal" json:"subtotal"`
	TaxRate       money.Amount `db:"tax_rate" json:"tax_rate"`
	Discount      money.Amount `db:"discount" json:"discount"`
	Total         money.Amount `db:"total" json:"total"`
	Notes         *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// InvoiceItem maps to the invoice_items table. TotalPrice is derived from
// quantity and unit price.
type InvoiceItem struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	InvoiceID   uuid.UUID    `db:"invoice_id" json:"invoice_id"`
	ServiceID   *uuid.UUID   `db:"service_id" json:"service_id,omitempty"`
	Description string       `db:"description" json:"description"`
	Quantity    int          `db:"quantity" json:"quantity"`
	UnitPrice   money.Amount `db:"unit_price" json:"unit_price"`
	TotalPrice  money.Amount `db:"total_price" json:"total_price"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// Payment maps to the payments table.
type Payment struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	InvoiceID     uuid.UUID    `db:"invoice_id" json:"invoice_id"`
	PaymentDate   date.Date    `db:"payment_date" json:"payment_date"`
	Amount        money.Amount `db:"amount" json:"amount"`
	Method        string       `db:"method" json:"method"`
	TransactionID *string      `db:"transaction_id" json:"transaction_id,omitempty"`
	Status        string       `db:"status" json:"status"`
	Notes         *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Stats is the aggregate payload for the invoices stats endpoint.
type Stats struct {
	MonthRevenue      money.Amount `json:"month_revenue"`
	MonthInvoices     int          `json:"month_invoices"`
	MonthPayments     int          `json:"month_payments"`
	OutstandingAmount money.Amount `json:"outstanding_amount"`
	OutstandingCount  int          `json:"outstanding_count"`
}
