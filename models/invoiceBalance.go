package models

import (
	"fmt"

	"bitbucket.org/mmdatafocus/billing_portal/utils"
	"github.com/shopspring/decimal"
)

// BalanceSummary is what the presentation layer consumes for an invoice.
// Formatting (currency symbols, locale) is not this package's concern.
type BalanceSummary struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

// AppliedPayment is one payment's contribution toward a single invoice:
// the raw status of the payment plus the amount applied to this invoice.
type AppliedPayment struct {
	Status        string
	AppliedAmount decimal.Decimal
}

// ComputeBalance sums the applied amounts of payments whose status normalizes
// to Verified and clamps the balance due at zero. Overpayment does not produce
// a negative balance; credit balances are not modeled here. A nil payment list
// is treated as empty. The computation is pure: calling it twice with the same
// inputs yields identical results.
func ComputeBalance(total decimal.Decimal, payments []AppliedPayment) BalanceSummary {
	amountPaid := decimal.Zero
	for _, p := range payments {
		if CountsTowardPaid(p.Status) {
			amountPaid = amountPaid.Add(p.AppliedAmount)
		}
	}

	balanceDue := total.Sub(amountPaid)
	if balanceDue.IsNegative() {
		balanceDue = decimal.Zero
	}

	return BalanceSummary{AmountPaid: amountPaid, BalanceDue: balanceDue}
}

// DeriveInvoiceStatus maps a freshly computed paid amount onto the invoice
// status lifecycle. Void is sticky: a voided invoice never changes status from
// a payment. An invoice with nothing verified against it keeps its current
// status (Sent stays Sent, Overdue stays Overdue).
func DeriveInvoiceStatus(current InvoiceStatus, total decimal.Decimal, amountPaid decimal.Decimal) InvoiceStatus {
	if current == InvoiceStatusVoid {
		return InvoiceStatusVoid
	}
	if amountPaid.LessThanOrEqual(decimal.Zero) {
		return current
	}
	if amountPaid.GreaterThanOrEqual(total) {
		return InvoiceStatusPaid
	}
	return InvoiceStatusPartialPaid
}

// ValidateAllocations checks a payment's invoice allocations against the
// payment amount and returns the unused remainder (customer credit).
// Violating inputs are rejected, never silently truncated.
func ValidateAllocations(amount decimal.Decimal, allocations []NewPaymentAllocation) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, utils.NewValidationError("payment amount must be positive")
	}

	seen := make(map[int]struct{}, len(allocations))
	applied := decimal.Zero
	for _, a := range allocations {
		if a.InvoiceId <= 0 {
			return decimal.Zero, utils.NewValidationError("allocation invoice id is required")
		}
		if _, dup := seen[a.InvoiceId]; dup {
			return decimal.Zero, utils.NewValidationError(fmt.Sprintf("invoice %d allocated more than once in a single payment", a.InvoiceId))
		}
		seen[a.InvoiceId] = struct{}{}
		if a.AppliedAmount.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, utils.NewValidationError(fmt.Sprintf("applied amount for invoice %d must be positive", a.InvoiceId))
		}
		applied = applied.Add(a.AppliedAmount)
	}

	if applied.GreaterThan(amount) {
		return decimal.Zero, utils.NewValidationError(
			fmt.Sprintf("allocated total %s exceeds payment amount %s", applied.String(), amount.String()))
	}

	return amount.Sub(applied), nil
}
