package models

import "strings"

// NormalizePaymentStatus maps a raw payment status string onto the canonical
// PaymentStatus enum. Upstream data sources are not schema-enforced: statuses
// arrive with inconsistent casing, embedded punctuation and a drift of synonyms
// for "the money arrived" ("Received", "PAID", "PAID_SUCCESS", ...). This is the
// single source of truth for that mapping; every balance computation must go
// through it rather than keeping its own synonym list.
//
// Unknown or empty statuses normalize to Pending Verification, which does not
// count toward the paid amount. Garbage input is never an error.
func NormalizePaymentStatus(raw string) PaymentStatus {
	switch canonicalStatusKey(raw) {
	case "verified", "received", "paid", "paidsuccess", "paidsuccessful", "verifiedpayment":
		return PaymentStatusVerified
	case "rejected", "failed", "declined":
		return PaymentStatusRejected
	default:
		return PaymentStatusPendingVerification
	}
}

// CountsTowardPaid reports whether a payment in this raw status contributes to
// an invoice's paid amount.
func CountsTowardPaid(raw string) bool {
	return NormalizePaymentStatus(raw) == PaymentStatusVerified
}

// canonicalStatusKey lowercases and strips separators so that
// "PAID_SUCCESS", "Paid Success" and "paid-success" collapse to one key.
func canonicalStatusKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
