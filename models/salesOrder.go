package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type SalesOrder struct {
	ID               int                     `gorm:"primary_key" json:"id"`
	BusinessId       string                  `gorm:"size:36;index;not null" json:"business_id"`
	CustomerId       int                     `gorm:"index;not null" json:"customer_id"`
	Customer         *Customer               `json:"customer,omitempty"`
	QuoteId          *int                    `json:"quote_id"`
	SequenceNo       int64                   `gorm:"index;not null" json:"sequence_no"`
	OrderNumber      string                  `gorm:"size:50;not null" json:"order_number"`
	OrderDate        time.Time               `json:"order_date"`
	ExpectedShipDate *time.Time              `json:"expected_ship_date"`
	Items            []SalesOrderItem        `json:"items"`
	SubTotal         decimal.Decimal         `gorm:"type:decimal(20,4);not null" json:"sub_total"`
	Total            decimal.Decimal         `gorm:"type:decimal(20,4);not null" json:"total"`
	Status           SalesOrderStatus        `gorm:"type:enum('Draft','Sent','Approved','Rejected');default:'Draft'" json:"status"`
	InvoiceStatus    SalesOrderInvoiceStatus `gorm:"type:enum('Not Invoiced','Invoiced');default:'Not Invoiced'" json:"invoice_status"`
	Notes            *string                 `gorm:"size:500" json:"notes"`
	CreatedAt        time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesOrderItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SalesOrderId int             `gorm:"index;not null" json:"sales_order_id"`
	ItemId       int             `gorm:"not null" json:"item_id"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	Unit         string          `gorm:"size:50" json:"unit"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

func (s SalesOrder) GetCursor() string {
	return s.CreatedAt.String()
}

// CreateSalesOrder records a customer's order request in Draft. When quoteId
// is non-nil the order is linked back to the originating quote.
func CreateSalesOrder(ctx context.Context, customerId int, lines []NewDocumentLine, quoteId *int, notes *string) (*SalesOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if quoteId != nil {
		if err := utils.ValidateResourceId[Quote](ctx, businessId, *quoteId); err != nil {
			return nil, utils.NewNotFoundError("quote not found")
		}
	}

	resolved, subTotal, err := resolveDocumentLines(ctx, businessId, lines)
	if err != nil {
		return nil, err
	}
	items := make([]SalesOrderItem, 0, len(resolved))
	for _, line := range resolved {
		items = append(items, SalesOrderItem{
			ItemId:   line.ItemId,
			Name:     line.Name,
			Unit:     line.Unit,
			Quantity: line.Quantity,
			Rate:     line.Rate,
			Amount:   line.Amount,
		})
	}

	seqNo, err := utils.GetSequence[SalesOrder](ctx, businessId)
	if err != nil {
		return nil, err
	}

	order := SalesOrder{
		BusinessId:    businessId,
		CustomerId:    customerId,
		QuoteId:       quoteId,
		SequenceNo:    seqNo,
		OrderNumber:   fmt.Sprintf("SO-%05d", seqNo),
		OrderDate:     time.Now(),
		Items:         items,
		SubTotal:      subTotal,
		Total:         subTotal,
		Status:        SalesOrderStatusDraft,
		InvoiceStatus: SalesOrderNotInvoiced,
		Notes:         notes,
	}

	err = config.GetDB().WithContext(ctx).Create(&order).Error
	if err != nil {
		config.LogError(config.GetLogger(), "salesOrder", "CreateSalesOrder", "create", order.OrderNumber, err)
		return nil, err
	}
	return &order, nil
}

// SendSalesOrder moves a draft order to Sent.
func SendSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[SalesOrder](ctx, businessId, id, "Items", "Customer")
	if err != nil {
		return nil, err
	}
	if order.Status != SalesOrderStatusDraft {
		return nil, utils.NewConflictError("only draft sales orders can be sent")
	}

	order.Status = SalesOrderStatusSent
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		recipient := ""
		if order.Customer != nil {
			recipient = order.Customer.Email
		}
		return PublishNotificationRecord(ctx, tx, businessId, NotificationEventSalesOrderSent,
			order.ID, "sales_order", recipient, order)
	})
	if err != nil {
		config.LogError(config.GetLogger(), "salesOrder", "SendSalesOrder", "save", order.OrderNumber, err)
		return nil, err
	}
	return order, nil
}

// UpdateSalesOrderStatus is the admin transition. Draft -> Sent, Sent ->
// Approved | Rejected; anything else conflicts.
func UpdateSalesOrderStatus(ctx context.Context, id int, next SalesOrderStatus) (*SalesOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[SalesOrder](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if !salesOrderTransitionAllowed(order.Status, next) {
		return nil, utils.NewConflictError(
			fmt.Sprintf("cannot move sales order from %s to %s", order.Status, next))
	}

	order.Status = next
	if err := config.GetDB().WithContext(ctx).Save(order).Error; err != nil {
		config.LogError(config.GetLogger(), "salesOrder", "UpdateSalesOrderStatus", "save", order.OrderNumber, err)
		return nil, err
	}
	return order, nil
}

func salesOrderTransitionAllowed(from, to SalesOrderStatus) bool {
	switch from {
	case SalesOrderStatusDraft:
		return to == SalesOrderStatusSent
	case SalesOrderStatusSent:
		return to == SalesOrderStatusApproved || to == SalesOrderStatusRejected
	default:
		return false
	}
}

// CustomerDecideSalesOrder applies the customer's approve/reject decision.
// Only orders in Sent and owned by the caller's profile are decidable.
func CustomerDecideSalesOrder(ctx context.Context, id int, approve bool) (*SalesOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	customer, err := GetCustomerForUser(ctx)
	if err != nil {
		return nil, err
	}

	order, err := utils.FetchModel[SalesOrder](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if order.CustomerId != customer.ID {
		return nil, utils.NewNotFoundError("sales order not found")
	}
	if order.Status != SalesOrderStatusSent {
		return nil, utils.NewConflictError("sales order is " + string(order.Status) + ", decision requires Sent")
	}

	if approve {
		order.Status = SalesOrderStatusApproved
	} else {
		order.Status = SalesOrderStatusRejected
	}
	if err := config.GetDB().WithContext(ctx).Save(order).Error; err != nil {
		config.LogError(config.GetLogger(), "salesOrder", "CustomerDecideSalesOrder", "save", order.OrderNumber, err)
		return nil, err
	}
	return order, nil
}

func GetSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	return utils.FetchModel[SalesOrder](ctx, businessId, id, "Items", "Customer")
}

func GetSalesOrders(ctx context.Context, customerId int, draftHidden bool) ([]*SalesOrder, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items").Where("business_id = ?", businessId)
	if customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", customerId)
	}
	if draftHidden {
		dbCtx = dbCtx.Where("status <> ?", SalesOrderStatusDraft)
	}

	var orders []*SalesOrder
	if err := dbCtx.Order("id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
