package models

import "testing"

func TestNormalizePaymentStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want PaymentStatus
	}{
		{"Verified", PaymentStatusVerified},
		{"verified", PaymentStatusVerified},
		{"VERIFIED", PaymentStatusVerified},
		{"Received", PaymentStatusVerified},
		{"Paid", PaymentStatusVerified},
		{"PAID_SUCCESS", PaymentStatusVerified},
		{"Paid Success", PaymentStatusVerified},
		{"paid-success", PaymentStatusVerified},
		{"PaidSuccessful", PaymentStatusVerified},
		{"Verified Payment", PaymentStatusVerified},
		{"Rejected", PaymentStatusRejected},
		{"failed", PaymentStatusRejected},
		{"DECLINED", PaymentStatusRejected},
		{"Pending Verification", PaymentStatusPendingVerification},
		{"pending", PaymentStatusPendingVerification},
		{"", PaymentStatusPendingVerification},
		{"garbage-status", PaymentStatusPendingVerification},
		{"paidd", PaymentStatusPendingVerification},
	}

	for _, tc := range cases {
		got := NormalizePaymentStatus(tc.raw)
		if got != tc.want {
			t.Errorf("NormalizePaymentStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizePaymentStatusIsPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if NormalizePaymentStatus("PAID_SUCCESS") != PaymentStatusVerified {
			t.Fatal("normalization must be deterministic")
		}
	}
}

func TestCountsTowardPaid(t *testing.T) {
	if !CountsTowardPaid("Verified") {
		t.Error("Verified must count toward paid")
	}
	if CountsTowardPaid("Pending Verification") {
		t.Error("pending payments must not count toward paid")
	}
	if CountsTowardPaid("Rejected") {
		t.Error("rejected payments must not count toward paid")
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	if !PaymentStatusVerified.IsTerminal() {
		t.Error("Verified is terminal")
	}
	if !PaymentStatusRejected.IsTerminal() {
		t.Error("Rejected is terminal")
	}
	if PaymentStatusPendingVerification.IsTerminal() {
		t.Error("Pending Verification is not terminal")
	}
}
