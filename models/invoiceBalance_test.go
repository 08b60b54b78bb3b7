package models

import (
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeBalanceMixedStatuses(t *testing.T) {
	// 1000 total, one 400 verified and one 200 pending: only the verified
	// allocation counts.
	summary := ComputeBalance(dec("1000"), []AppliedPayment{
		{Status: "Verified", AppliedAmount: dec("400")},
		{Status: "Pending Verification", AppliedAmount: dec("200")},
	})

	if !summary.AmountPaid.Equal(dec("400")) {
		t.Errorf("AmountPaid = %s, want 400", summary.AmountPaid)
	}
	if !summary.BalanceDue.Equal(dec("600")) {
		t.Errorf("BalanceDue = %s, want 600", summary.BalanceDue)
	}
}

func TestComputeBalanceSynonymStatus(t *testing.T) {
	summary := ComputeBalance(dec("500"), []AppliedPayment{
		{Status: "PAID_SUCCESS", AppliedAmount: dec("500")},
	})

	if !summary.AmountPaid.Equal(dec("500")) {
		t.Errorf("AmountPaid = %s, want 500", summary.AmountPaid)
	}
	if !summary.BalanceDue.IsZero() {
		t.Errorf("BalanceDue = %s, want 0", summary.BalanceDue)
	}
}

func TestComputeBalanceClampsAtZero(t *testing.T) {
	summary := ComputeBalance(dec("300"), []AppliedPayment{
		{Status: "Verified", AppliedAmount: dec("500")},
	})

	if !summary.BalanceDue.IsZero() {
		t.Errorf("overpayment must clamp balance due at zero, got %s", summary.BalanceDue)
	}
	if !summary.AmountPaid.Equal(dec("500")) {
		t.Errorf("AmountPaid = %s, want 500", summary.AmountPaid)
	}
}

func TestComputeBalanceNilPayments(t *testing.T) {
	summary := ComputeBalance(dec("250"), nil)

	if !summary.AmountPaid.IsZero() {
		t.Errorf("AmountPaid = %s, want 0", summary.AmountPaid)
	}
	if !summary.BalanceDue.Equal(dec("250")) {
		t.Errorf("BalanceDue = %s, want 250", summary.BalanceDue)
	}
}

func TestComputeBalanceZeroTotal(t *testing.T) {
	summary := ComputeBalance(decimal.Zero, []AppliedPayment{
		{Status: "Verified", AppliedAmount: dec("10")},
	})
	if !summary.BalanceDue.IsZero() {
		t.Errorf("BalanceDue = %s, want 0", summary.BalanceDue)
	}
}

func TestComputeBalanceIdempotent(t *testing.T) {
	payments := []AppliedPayment{
		{Status: "Verified", AppliedAmount: dec("123.45")},
		{Status: "Rejected", AppliedAmount: dec("77")},
	}
	first := ComputeBalance(dec("1000"), payments)
	second := ComputeBalance(dec("1000"), payments)

	if !first.AmountPaid.Equal(second.AmountPaid) || !first.BalanceDue.Equal(second.BalanceDue) {
		t.Errorf("recompute changed the result: %+v vs %+v", first, second)
	}
}

func TestComputeBalancePaidPlusDueEqualsTotal(t *testing.T) {
	total := dec("1000")
	summary := ComputeBalance(total, []AppliedPayment{
		{Status: "Verified", AppliedAmount: dec("333.3333")},
		{Status: "Verified", AppliedAmount: dec("111.1111")},
	})

	if !summary.AmountPaid.Add(summary.BalanceDue).Equal(total) {
		t.Errorf("paid %s + due %s != total %s", summary.AmountPaid, summary.BalanceDue, total)
	}
}

func TestDeriveInvoiceStatus(t *testing.T) {
	cases := []struct {
		name    string
		current InvoiceStatus
		total   string
		paid    string
		want    InvoiceStatus
	}{
		{"nothing verified keeps Sent", InvoiceStatusSent, "1000", "0", InvoiceStatusSent},
		{"nothing verified keeps Overdue", InvoiceStatusOverdue, "1000", "0", InvoiceStatusOverdue},
		{"partial payment", InvoiceStatusSent, "1000", "400", InvoiceStatusPartialPaid},
		{"exact payment", InvoiceStatusSent, "1000", "1000", InvoiceStatusPaid},
		{"overpayment", InvoiceStatusSent, "1000", "1200", InvoiceStatusPaid},
		{"void is sticky", InvoiceStatusVoid, "1000", "1000", InvoiceStatusVoid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveInvoiceStatus(tc.current, dec(tc.total), dec(tc.paid))
			if got != tc.want {
				t.Errorf("DeriveInvoiceStatus(%s, %s, %s) = %s, want %s",
					tc.current, tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestValidateAllocationsOverSumRejected(t *testing.T) {
	// 600 + 500 against a 1000 payment must be rejected, not truncated.
	_, err := ValidateAllocations(dec("1000"), []NewPaymentAllocation{
		{InvoiceId: 1, AppliedAmount: dec("600")},
		{InvoiceId: 2, AppliedAmount: dec("500")},
	})
	if err == nil {
		t.Fatal("expected validation error for over-allocated payment")
	}
	if !utils.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestValidateAllocationsUnusedRemainder(t *testing.T) {
	unused, err := ValidateAllocations(dec("1000"), []NewPaymentAllocation{
		{InvoiceId: 1, AppliedAmount: dec("600")},
		{InvoiceId: 2, AppliedAmount: dec("300")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !unused.Equal(dec("100")) {
		t.Errorf("unused = %s, want 100", unused)
	}
}

func TestValidateAllocationsExactIsZeroUnused(t *testing.T) {
	unused, err := ValidateAllocations(dec("500"), []NewPaymentAllocation{
		{InvoiceId: 7, AppliedAmount: dec("500")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !unused.IsZero() {
		t.Errorf("unused = %s, want 0", unused)
	}
}

func TestValidateAllocationsEmptyKeepsFullAmountUnused(t *testing.T) {
	unused, err := ValidateAllocations(dec("250"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !unused.Equal(dec("250")) {
		t.Errorf("unused = %s, want 250", unused)
	}
}

func TestValidateAllocationsRejectsBadInput(t *testing.T) {
	cases := []struct {
		name        string
		amount      string
		allocations []NewPaymentAllocation
	}{
		{"zero amount", "0", nil},
		{"negative amount", "-1", nil},
		{"missing invoice id", "100", []NewPaymentAllocation{{InvoiceId: 0, AppliedAmount: dec("10")}}},
		{"zero applied amount", "100", []NewPaymentAllocation{{InvoiceId: 1, AppliedAmount: decimal.Zero}}},
		{"negative applied amount", "100", []NewPaymentAllocation{{InvoiceId: 1, AppliedAmount: dec("-10")}}},
		{"duplicate invoice", "100", []NewPaymentAllocation{
			{InvoiceId: 1, AppliedAmount: dec("10")},
			{InvoiceId: 1, AppliedAmount: dec("20")},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateAllocations(dec(tc.amount), tc.allocations)
			if err == nil {
				t.Fatal("expected error")
			}
			if !utils.IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}
