package models

import "testing"

func TestSalesOrderTransitionAllowed(t *testing.T) {
	allowed := map[SalesOrderStatus][]SalesOrderStatus{
		SalesOrderStatusDraft: {SalesOrderStatusSent},
		SalesOrderStatusSent:  {SalesOrderStatusApproved, SalesOrderStatusRejected},
	}
	all := []SalesOrderStatus{
		SalesOrderStatusDraft,
		SalesOrderStatusSent,
		SalesOrderStatusApproved,
		SalesOrderStatusRejected,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			if got := salesOrderTransitionAllowed(from, to); got != want {
				t.Errorf("salesOrderTransitionAllowed(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestParseSalesOrderStatus(t *testing.T) {
	status, err := ParseSalesOrderStatus("Approved")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != SalesOrderStatusApproved {
		t.Errorf("ParseSalesOrderStatus(Approved) = %s", status)
	}

	if _, err := ParseSalesOrderStatus("Invoiced"); err == nil {
		t.Error("expected error for a status outside the order lifecycle")
	}
	if _, err := ParseSalesOrderStatus(""); err == nil {
		t.Error("expected error for empty status")
	}
}
