package billing

import (
	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/money"
)

// invoiceTransitions is the allowed status transition table. Absent targets
// are rejected; paid and cancelled are terminal.
var invoiceTransitions = map[string][]string{
	InvoiceDraft:     {InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceSent:      {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue:   {InvoicePaid, InvoiceSent, InvoiceCancelled},
	InvoicePaid:      {},
	InvoiceCancelled: {},
}

// CanTransition reports whether an invoice may move from one status to
// another. Keeping the current status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, t := range invoiceTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ItemTotal derives an item's total price from quantity and unit price.
func ItemTotal(it *InvoiceItem) money.Amount {
	return it.UnitPrice.MulInt(it.Quantity)
}

// RecomputeTotals recalculates the invoice's derived amounts from its items:
// subtotal is the sum of item totals, total = subtotal + tax - discount.
// A discount larger than subtotal plus tax yields a negative total; that is
// accepted input, not clamped. Idempotent for unchanged items.
func RecomputeTotals(inv *Invoice, items []*InvoiceItem) {
	subtotal := money.Zero()
	for _, it := range items {
		subtotal = subtotal.Add(ItemTotal(it))
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Add(subtotal.ApplyRate(inv.TaxRate)).Sub(inv.Discount)
}

// ApplyPayment flips the invoice to paid when the sum of its completed
// payments covers the total. One-way ratchet: a paid or cancelled invoice is
// never moved, and refunds do not revert the status. Returns true when the
// status changed.
func ApplyPayment(inv *Invoice, completedSum money.Amount) bool {
	if !completedSum.GTE(inv.Total) {
		return false
	}
	if !CanTransition(inv.Status, InvoicePaid) || inv.Status == InvoicePaid {
		return false
	}
	inv.Status = InvoicePaid
	return true
}

// MarkOverdue transitions an unsettled invoice past its due date to overdue.
// Returns true when the status changed.
func MarkOverdue(inv *Invoice, today date.Date) bool {
	if inv.Status == InvoicePaid || inv.Status == InvoiceCancelled || inv.Status == InvoiceOverdue {
		return false
	}
	if !today.After(inv.DueDate) {
		return false
	}
	inv.Status = InvoiceOverdue
	return true
}
