package billing

import (
	"testing"

	"github.com/smilecare/smilecare/pkg/date"
	"github.com/smilecare/smilecare/pkg/money"
)

func amt(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return a
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{InvoiceDraft, InvoiceSent, true},
		{InvoiceDraft, InvoicePaid, true},
		{InvoiceDraft, InvoiceOverdue, true},
		{InvoiceDraft, InvoiceCancelled, true},
		{InvoiceSent, InvoicePaid, true},
		{InvoiceSent, InvoiceDraft, false},
		{InvoiceOverdue, InvoiceSent, true},
		{InvoicePaid, InvoiceSent, false},
		{InvoicePaid, InvoiceCancelled, false},
		{InvoiceCancelled, InvoiceDraft, false},
		{InvoiceCancelled, InvoicePaid, false},
		{InvoicePaid, InvoicePaid, true},
		{InvoiceCancelled, InvoiceCancelled, true},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRecomputeTotals(t *testing.T) {
	inv := &Invoice{
		TaxRate:  amt(t, "8.25"),
		Discount: amt(t, "5.00"),
	}
	items := []*InvoiceItem{
		{Quantity: 2, UnitPrice: amt(t, "30.00")},
		{Quantity: 1, UnitPrice: amt(t, "40.00")},
	}
	RecomputeTotals(inv, items)

	if got := inv.Subtotal.String(); got != "100.00" {
		t.Errorf("subtotal = %s, want 100.00", got)
	}
	// 100.00 + 8.25 tax - 5.00 discount
	if got := inv.Total.String(); got != "103.25" {
		t.Errorf("total = %s, want 103.25", got)
	}

	// Recomputing with unchanged items must not drift.
	RecomputeTotals(inv, items)
	if got := inv.Total.String(); got != "103.25" {
		t.Errorf("total after recompute = %s, want 103.25", got)
	}
}

func TestRecomputeTotals_NegativeAllowed(t *testing.T) {
	inv := &Invoice{Discount: amt(t, "50.00")}
	RecomputeTotals(inv, []*InvoiceItem{{Quantity: 1, UnitPrice: amt(t, "20.00")}})
	if got := inv.Total.String(); got != "-30.00" {
		t.Errorf("total = %s, want -30.00", got)
	}
}

func TestRecomputeTotals_NoItems(t *testing.T) {
	inv := &Invoice{Subtotal: amt(t, "99.00")}
	RecomputeTotals(inv, nil)
	if !inv.Subtotal.IsZero() || !inv.Total.IsZero() {
		t.Errorf("empty invoice: subtotal=%s total=%s, want zero", inv.Subtotal, inv.Total)
	}
}

func TestApplyPayment(t *testing.T) {
	inv := &Invoice{Status: InvoiceSent, Total: amt(t, "200.00")}

	if ApplyPayment(inv, amt(t, "120.00")) {
		t.Fatal("partial payment flipped the invoice")
	}
	if inv.Status != InvoiceSent {
		t.Fatalf("status = %s, want sent", inv.Status)
	}

	if !ApplyPayment(inv, amt(t, "200.00")) {
		t.Fatal("full payment did not flip the invoice")
	}
	if inv.Status != InvoicePaid {
		t.Fatalf("status = %s, want paid", inv.Status)
	}

	// Already paid: idempotent, reports no change.
	if ApplyPayment(inv, amt(t, "200.00")) {
		t.Fatal("second application reported a change")
	}
	if inv.Status != InvoicePaid {
		t.Fatalf("status = %s, want paid", inv.Status)
	}
}

func TestApplyPayment_Overpayment(t *testing.T) {
	inv := &Invoice{Status: InvoiceSent, Total: amt(t, "100.00")}
	if !ApplyPayment(inv, amt(t, "150.00")) {
		t.Fatal("overpayment did not flip the invoice")
	}
}

func TestApplyPayment_CancelledNeverFlips(t *testing.T) {
	inv := &Invoice{Status: InvoiceCancelled, Total: amt(t, "100.00")}
	if ApplyPayment(inv, amt(t, "100.00")) {
		t.Fatal("cancelled invoice flipped to paid")
	}
}

func TestItemTotal(t *testing.T) {
	it := &InvoiceItem{Quantity: 3, UnitPrice: amt(t, "19.99")}
	if got := ItemTotal(it).String(); got != "59.97" {
		t.Errorf("ItemTotal = %s, want 59.97", got)
	}
}

func TestMarkOverdue(t *testing.T) {
	due := date.MustParse("2025-03-10")
	tests := []struct {
		name   string
		status string
		today  string
		want   bool
	}{
		{"sent past due", InvoiceSent, "2025-03-11", true},
		{"draft past due", InvoiceDraft, "2025-03-11", true},
		{"sent on due date", InvoiceSent, "2025-03-10", false},
		{"sent before due", InvoiceSent, "2025-03-09", false},
		{"paid past due", InvoicePaid, "2025-04-01", false},
		{"cancelled past due", InvoiceCancelled, "2025-04-01", false},
		{"already overdue", InvoiceOverdue, "2025-04-01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{Status: tt.status, DueDate: due}
			if got := MarkOverdue(inv, date.MustParse(tt.today)); got != tt.want {
				t.Fatalf("MarkOverdue = %v, want %v", got, tt.want)
			}
			if tt.want && inv.Status != InvoiceOverdue {
				t.Fatalf("status = %s, want overdue", inv.Status)
			}
		})
	}
}
