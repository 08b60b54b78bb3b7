package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

// invoiceDueDays is added to the issue date when an invoice is generated
// from an approved sales order.
const invoiceDueDays = 15

type Invoice struct {
	ID                     int               `gorm:"primary_key" json:"id"`
	BusinessId             string            `gorm:"size:36;index;not null" json:"business_id"`
	CustomerId             int               `gorm:"index;not null" json:"customer_id"`
	Customer               *Customer         `json:"customer,omitempty"`
	SalesOrderId           *int              `gorm:"index" json:"sales_order_id"`
	SequenceNo             int64             `gorm:"index;not null" json:"sequence_no"`
	InvoiceNumber          string            `gorm:"size:50;not null" json:"invoice_number"`
	IssueDate              time.Time         `gorm:"index;not null" json:"issue_date"`
	DueDate                time.Time         `gorm:"index;not null" json:"due_date"`
	Items                  []InvoiceItem     `json:"items"`
	InvoiceTotalAmount     decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"invoice_total_amount"`
	InvoiceTotalPaidAmount decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"invoice_total_paid_amount"`
	BalanceDue             decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"balance_due"`
	Status                 InvoiceStatus     `gorm:"type:enum('Draft','Sent','Partial Paid','Paid','Overdue','Void');default:'Draft'" json:"status"`
	Notes                  *string           `gorm:"size:500" json:"notes"`
	Activities             []InvoiceActivity `json:"activities,omitempty"`
	CreatedAt              time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	InvoiceId int             `gorm:"index;not null" json:"invoice_id"`
	ItemId    int             `gorm:"not null" json:"item_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Unit      string          `gorm:"size:50" json:"unit"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

// InvoiceActivity is the append-only activity trail shown on an invoice.
type InvoiceActivity struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"size:36;index;not null" json:"business_id"`
	InvoiceId  int       `gorm:"index;not null" json:"invoice_id"`
	Activity   string    `gorm:"size:500;not null" json:"activity"`
	Actor      string    `gorm:"size:100" json:"actor"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

var clauseLockForUpdate = clause.Locking{Strength: "UPDATE"}

func (i Invoice) GetCursor() string {
	return i.CreatedAt.String()
}

func AppendInvoiceActivity(ctx context.Context, tx *gorm.DB, businessId string, invoiceId int, activity string) error {
	actor, _ := utils.GetUserNameFromContext(ctx)
	record := InvoiceActivity{
		BusinessId: businessId,
		InvoiceId:  invoiceId,
		Activity:   activity,
		Actor:      actor,
	}
	return tx.Create(&record).Error
}

// GenerateInvoiceFromSalesOrder issues the invoice for an approved sales
// order. An order is invoiced at most once; a second attempt conflicts. The
// invoice goes out in Sent with the due date a fixed number of days after the
// issue date.
func GenerateInvoiceFromSalesOrder(ctx context.Context, salesOrderId int) (*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[SalesOrder](ctx, businessId, salesOrderId, "Items", "Customer")
	if err != nil {
		return nil, utils.NewNotFoundError("sales order not found")
	}
	if order.Status != SalesOrderStatusApproved {
		return nil, utils.NewConflictError("sales order must be Approved to generate an invoice")
	}
	if order.InvoiceStatus == SalesOrderInvoiced {
		return nil, utils.NewConflictError("sales order is already invoiced")
	}

	seqNo, err := utils.GetSequence[Invoice](ctx, businessId)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, InvoiceItem{
			ItemId:   line.ItemId,
			Name:     line.Name,
			Unit:     line.Unit,
			Quantity: line.Quantity,
			Rate:     line.Rate,
			Amount:   line.Amount,
		})
	}

	issueDate := time.Now()
	invoice := Invoice{
		BusinessId:             businessId,
		CustomerId:             order.CustomerId,
		SalesOrderId:           &order.ID,
		SequenceNo:             seqNo,
		InvoiceNumber:          fmt.Sprintf("INV-%05d", seqNo),
		IssueDate:              issueDate,
		DueDate:                issueDate.AddDate(0, 0, invoiceDueDays),
		Items:                  items,
		InvoiceTotalAmount:     order.Total,
		InvoiceTotalPaidAmount: decimal.Zero,
		BalanceDue:             order.Total,
		Status:                 InvoiceStatusSent,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	// guard against a concurrent generate on the same order
	result := tx.Model(&SalesOrder{}).
		Where("id = ? AND business_id = ? AND invoice_status = ?", order.ID, businessId, SalesOrderNotInvoiced).
		Update("invoice_status", SalesOrderInvoiced)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.NewConflictError("sales order is already invoiced")
	}

	if err := tx.Create(&invoice).Error; err != nil {
		config.LogError(config.GetLogger(), "invoice", "GenerateInvoiceFromSalesOrder", "create", order.OrderNumber, err)
		return nil, err
	}

	if err := AppendInvoiceActivity(ctx, tx, businessId, invoice.ID,
		fmt.Sprintf("Invoice %s generated from sales order %s", invoice.InvoiceNumber, order.OrderNumber)); err != nil {
		return nil, err
	}

	recipient := ""
	if order.Customer != nil {
		recipient = order.Customer.Email
	}
	if err := PublishNotificationRecord(ctx, tx, businessId, NotificationEventInvoiceIssued,
		invoice.ID, "invoice", recipient, invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// appliedPaymentsForInvoice loads every allocation against the invoice with
// the raw status of its payment, on the caller's transaction.
func appliedPaymentsForInvoice(tx *gorm.DB, businessId string, invoiceId int) ([]AppliedPayment, error) {
	var rows []AppliedPayment
	err := tx.Table("payment_allocations").
		Select("payments.status as status, payment_allocations.applied_amount as applied_amount").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payment_allocations.invoice_id = ? AND payments.business_id = ?", invoiceId, businessId).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RecomputeInvoiceBalanceTx re-derives paid amount, balance due and status for
// one invoice from its payment allocations, on the caller's transaction. The
// invoice row is locked for the duration of the transaction.
func RecomputeInvoiceBalanceTx(ctx context.Context, tx *gorm.DB, businessId string, invoiceId int) (*Invoice, error) {
	var invoice Invoice
	err := tx.Clauses(clauseLockForUpdate).
		Where("business_id = ?", businessId).
		First(&invoice, invoiceId).Error
	if err != nil {
		return nil, utils.NewNotFoundError(fmt.Sprintf("invoice %d not found", invoiceId))
	}

	payments, err := appliedPaymentsForInvoice(tx, businessId, invoiceId)
	if err != nil {
		return nil, err
	}

	summary := ComputeBalance(invoice.InvoiceTotalAmount, payments)
	invoice.InvoiceTotalPaidAmount = summary.AmountPaid
	invoice.BalanceDue = summary.BalanceDue
	invoice.Status = DeriveInvoiceStatus(invoice.Status, invoice.InvoiceTotalAmount, summary.AmountPaid)

	err = tx.Model(&Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"invoice_total_paid_amount": invoice.InvoiceTotalPaidAmount,
		"balance_due":               invoice.BalanceDue,
		"status":                    invoice.Status,
	}).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// VoidInvoice cancels an invoice. Invoices are never deleted. Paid and already
// voided invoices cannot be voided.
func VoidInvoice(ctx context.Context, id int) (*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	invoice, err := utils.FetchModel[Invoice](ctx, businessId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("invoice not found")
	}
	if invoice.Status == InvoiceStatusVoid {
		return nil, utils.NewConflictError("invoice is already void")
	}
	if invoice.Status == InvoiceStatusPaid || invoice.Status == InvoiceStatusPartialPaid {
		return nil, utils.NewConflictError("invoice with verified payments cannot be voided")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	invoice.Status = InvoiceStatusVoid
	if err := tx.Model(&Invoice{}).Where("id = ?", invoice.ID).
		Update("status", InvoiceStatusVoid).Error; err != nil {
		config.LogError(config.GetLogger(), "invoice", "VoidInvoice", "update", invoice.InvoiceNumber, err)
		return nil, err
	}
	if err := AppendInvoiceActivity(ctx, tx, businessId, invoice.ID,
		fmt.Sprintf("Invoice %s voided", invoice.InvoiceNumber)); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	invoice, err := utils.FetchModel[Invoice](ctx, businessId, id, "Items", "Customer", "Activities")
	if err != nil {
		return nil, utils.NewNotFoundError("invoice not found")
	}
	return invoice, nil
}

// GetInvoiceForCustomer fetches an invoice and enforces that it belongs to
// the caller's customer profile.
func GetInvoiceForCustomer(ctx context.Context, id int) (*Invoice, error) {
	customer, err := GetCustomerForUser(ctx)
	if err != nil {
		return nil, err
	}

	invoice, err := GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.CustomerId != customer.ID {
		return nil, utils.NewNotFoundError("invoice not found")
	}
	return invoice, nil
}

func GetInvoices(ctx context.Context, customerId int, draftHidden bool, status *InvoiceStatus) ([]*Invoice, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items").Where("business_id = ?", businessId)
	if customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", customerId)
	}
	if draftHidden {
		dbCtx = dbCtx.Where("status <> ?", InvoiceStatusDraft)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	var invoices []*Invoice
	if err := dbCtx.Order("id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetInvoicesPage is the cursor-paged invoice listing for the admin console.
func GetInvoicesPage(ctx context.Context, limit int, after *string, status *InvoiceStatus) ([]Edge[Invoice], *PageInfo, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Invoice{}).Preload("Items").Where("business_id = ?", businessId)
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	return FetchPagePureCursor[Invoice](dbCtx, limit, after, "created_at", "<")
}

// MarkOverdueInvoices flips Sent and Partial Paid invoices past their due
// date to Overdue across all businesses. Run by the one-shot cmd tool.
func MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Invoice{}).
		Where("status IN ? AND due_date < ?", []InvoiceStatus{InvoiceStatusSent, InvoiceStatusPartialPaid}, asOf).
		Update("status", InvoiceStatusOverdue)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
