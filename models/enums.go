package models

import "errors"

type UserRole string

const (
	UserRoleAdmin    UserRole = "A"
	UserRoleOwner    UserRole = "O"
	UserRoleCustomer UserRole = "C"
)

func ParseUserRole(s string) (UserRole, error) {
	userRoles := map[string]UserRole{
		"admin":    UserRoleAdmin,
		"owner":    UserRoleOwner,
		"customer": UserRoleCustomer,
		"A":        UserRoleAdmin,
		"O":        UserRoleOwner,
		"C":        UserRoleCustomer,
	}
	role, ok := userRoles[s]
	if !ok {
		return "", errors.New("invalid user role")
	}
	return role, nil
}

type InvoiceStatus string

const (
	InvoiceStatusDraft       InvoiceStatus = "Draft"
	InvoiceStatusSent        InvoiceStatus = "Sent"
	InvoiceStatusPartialPaid InvoiceStatus = "Partial Paid"
	InvoiceStatusPaid        InvoiceStatus = "Paid"
	InvoiceStatusOverdue     InvoiceStatus = "Overdue"
	InvoiceStatusVoid        InvoiceStatus = "Void"
)

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	invoiceStatus := map[string]InvoiceStatus{
		"Draft":        InvoiceStatusDraft,
		"Sent":         InvoiceStatusSent,
		"Partial Paid": InvoiceStatusPartialPaid,
		"Paid":         InvoiceStatusPaid,
		"Overdue":      InvoiceStatusOverdue,
		"Void":         InvoiceStatusVoid,
	}
	status, ok := invoiceStatus[s]
	if !ok {
		return "", errors.New("invalid invoice status")
	}
	return status, nil
}

type PaymentStatus string

const (
	PaymentStatusPendingVerification PaymentStatus = "Pending Verification"
	PaymentStatusVerified            PaymentStatus = "Verified"
	PaymentStatusRejected            PaymentStatus = "Rejected"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusVerified || s == PaymentStatusRejected
}

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "Draft"
	QuoteStatusSent     QuoteStatus = "Sent"
	QuoteStatusApproved QuoteStatus = "Approved"
	QuoteStatusScrapped QuoteStatus = "Scrapped"
)

func ParseQuoteStatus(s string) (QuoteStatus, error) {
	quoteStatus := map[string]QuoteStatus{
		"Draft":    QuoteStatusDraft,
		"Sent":     QuoteStatusSent,
		"Approved": QuoteStatusApproved,
		"Scrapped": QuoteStatusScrapped,
	}
	status, ok := quoteStatus[s]
	if !ok {
		return "", errors.New("invalid quote status")
	}
	return status, nil
}

type SalesOrderStatus string

const (
	SalesOrderStatusDraft    SalesOrderStatus = "Draft"
	SalesOrderStatusSent     SalesOrderStatus = "Sent"
	SalesOrderStatusApproved SalesOrderStatus = "Approved"
	SalesOrderStatusRejected SalesOrderStatus = "Rejected"
)

func ParseSalesOrderStatus(s string) (SalesOrderStatus, error) {
	salesOrderStatus := map[string]SalesOrderStatus{
		"Draft":    SalesOrderStatusDraft,
		"Sent":     SalesOrderStatusSent,
		"Approved": SalesOrderStatusApproved,
		"Rejected": SalesOrderStatusRejected,
	}
	status, ok := salesOrderStatus[s]
	if !ok {
		return "", errors.New("invalid sales order status")
	}
	return status, nil
}

type SalesOrderInvoiceStatus string

const (
	SalesOrderNotInvoiced SalesOrderInvoiceStatus = "Not Invoiced"
	SalesOrderInvoiced    SalesOrderInvoiceStatus = "Invoiced"
)

type ItemRequestStatus string

const (
	ItemRequestStatusPending  ItemRequestStatus = "Pending"
	ItemRequestStatusApproved ItemRequestStatus = "Approved"
	ItemRequestStatusRejected ItemRequestStatus = "Rejected"
)

func ParseItemRequestStatus(s string) (ItemRequestStatus, error) {
	itemRequestStatus := map[string]ItemRequestStatus{
		"Pending":  ItemRequestStatusPending,
		"Approved": ItemRequestStatusApproved,
		"Rejected": ItemRequestStatusRejected,
	}
	status, ok := itemRequestStatus[s]
	if !ok {
		return "", errors.New("invalid item request status")
	}
	return status, nil
}

type RequestType string

const (
	RequestTypeQuote      RequestType = "quote"
	RequestTypeSalesOrder RequestType = "sales_order"
	RequestTypeBoth       RequestType = "both"
)

func (t RequestType) WantsQuote() bool {
	return t == RequestTypeQuote || t == RequestTypeBoth
}

func (t RequestType) WantsSalesOrder() bool {
	return t == RequestTypeSalesOrder || t == RequestTypeBoth
}

type NotificationEventType string

const (
	NotificationEventQuoteSent       NotificationEventType = "quote_sent"
	NotificationEventSalesOrderSent  NotificationEventType = "sales_order_sent"
	NotificationEventInvoiceIssued   NotificationEventType = "invoice_issued"
	NotificationEventPaymentVerified NotificationEventType = "payment_verified"
	NotificationEventPaymentRejected NotificationEventType = "payment_rejected"
)

const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)
