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

type Quote struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:36;index;not null" json:"business_id"`
	CustomerId  int             `gorm:"index;not null" json:"customer_id"`
	Customer    *Customer       `json:"customer,omitempty"`
	SequenceNo  int64           `gorm:"index;not null" json:"sequence_no"`
	QuoteNumber string          `gorm:"size:50;not null" json:"quote_number"`
	QuoteDate   time.Time       `json:"quote_date"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
	Items       []QuoteItem     `json:"items"`
	SubTotal    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"sub_total"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	Status      QuoteStatus     `gorm:"type:enum('Draft','Sent','Approved','Scrapped');default:'Draft'" json:"status"`
	Notes       *string         `gorm:"size:500" json:"notes"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type QuoteItem struct {
	ID       int             `gorm:"primary_key" json:"id"`
	QuoteId  int             `gorm:"index;not null" json:"quote_id"`
	ItemId   int             `gorm:"not null" json:"item_id"`
	Name     string          `gorm:"size:255;not null" json:"name"`
	Unit     string          `gorm:"size:50" json:"unit"`
	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Amount   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

// NewDocumentLine is one requested catalog line. Rates always come from the
// catalog, never from client input.
type NewDocumentLine struct {
	ItemId   int             `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

func (q Quote) GetCursor() string {
	return q.CreatedAt.String()
}

// resolveDocumentLines validates requested lines against the catalog and
// prices them. Shared by quote and sales order creation.
func resolveDocumentLines(ctx context.Context, businessId string, lines []NewDocumentLine) ([]QuoteItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, utils.NewValidationError("at least one line item is required")
	}

	resolved := make([]QuoteItem, 0, len(lines))
	subTotal := decimal.Zero
	seen := map[int]bool{}
	for _, line := range lines {
		if seen[line.ItemId] {
			return nil, decimal.Zero, utils.NewValidationError(fmt.Sprintf("duplicate item %d in request", line.ItemId))
		}
		seen[line.ItemId] = true
		if !line.Quantity.IsPositive() {
			return nil, decimal.Zero, utils.NewValidationError("quantity must be positive")
		}

		item, err := utils.FetchModel[Item](ctx, businessId, line.ItemId)
		if err != nil {
			return nil, decimal.Zero, utils.NewNotFoundError(fmt.Sprintf("item %d not found", line.ItemId))
		}
		if !item.IsActive {
			return nil, decimal.Zero, utils.NewValidationError(fmt.Sprintf("item %q is not active", item.Name))
		}

		amount := item.Rate.Mul(line.Quantity)
		resolved = append(resolved, QuoteItem{
			ItemId:   item.ID,
			Name:     item.Name,
			Unit:     item.Unit,
			Quantity: line.Quantity,
			Rate:     item.Rate,
			Amount:   amount,
		})
		subTotal = subTotal.Add(amount)
	}
	return resolved, subTotal, nil
}

// CreateQuote records a customer's quote request in Draft.
func CreateQuote(ctx context.Context, customerId int, lines []NewDocumentLine, notes *string) (*Quote, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	items, subTotal, err := resolveDocumentLines(ctx, businessId, lines)
	if err != nil {
		return nil, err
	}

	seqNo, err := utils.GetSequence[Quote](ctx, businessId)
	if err != nil {
		return nil, err
	}

	quote := Quote{
		BusinessId:  businessId,
		CustomerId:  customerId,
		SequenceNo:  seqNo,
		QuoteNumber: fmt.Sprintf("QT-%05d", seqNo),
		QuoteDate:   time.Now(),
		Items:       items,
		SubTotal:    subTotal,
		Total:       subTotal,
		Status:      QuoteStatusDraft,
		Notes:       notes,
	}

	err = config.GetDB().WithContext(ctx).Create(&quote).Error
	if err != nil {
		config.LogError(config.GetLogger(), "quote", "CreateQuote", "create", quote.QuoteNumber, err)
		return nil, err
	}
	return &quote, nil
}

// SendQuote moves a draft quote to Sent, making it visible to the customer.
func SendQuote(ctx context.Context, id int) (*Quote, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	quote, err := utils.FetchModel[Quote](ctx, businessId, id, "Items", "Customer")
	if err != nil {
		return nil, err
	}
	if quote.Status != QuoteStatusDraft {
		return nil, utils.NewConflictError("only draft quotes can be sent")
	}

	quote.Status = QuoteStatusSent
	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(quote).Error; err != nil {
			return err
		}
		recipient := ""
		if quote.Customer != nil {
			recipient = quote.Customer.Email
		}
		return PublishNotificationRecord(ctx, tx, businessId, NotificationEventQuoteSent,
			quote.ID, "quote", recipient, quote)
	})
	if err != nil {
		config.LogError(config.GetLogger(), "quote", "SendQuote", "save", quote.QuoteNumber, err)
		return nil, err
	}
	return quote, nil
}

// ScrapQuote retires a quote. Approved quotes cannot be scrapped.
func ScrapQuote(ctx context.Context, id int) (*Quote, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	quote, err := utils.FetchModel[Quote](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if quote.Status == QuoteStatusApproved || quote.Status == QuoteStatusScrapped {
		return nil, utils.NewConflictError("quote is already " + string(quote.Status))
	}

	quote.Status = QuoteStatusScrapped
	if err := config.GetDB().WithContext(ctx).Save(quote).Error; err != nil {
		config.LogError(config.GetLogger(), "quote", "ScrapQuote", "save", quote.QuoteNumber, err)
		return nil, err
	}
	return quote, nil
}

// CustomerDecideQuote applies the customer's approve/reject decision. Only
// quotes in Sent and owned by the caller's customer profile are decidable.
func CustomerDecideQuote(ctx context.Context, id int, approve bool) (*Quote, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	customer, err := GetCustomerForUser(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := utils.FetchModel[Quote](ctx, businessId, id, "Items")
	if err != nil {
		return nil, err
	}
	if quote.CustomerId != customer.ID {
		return nil, utils.NewNotFoundError("quote not found")
	}
	if quote.Status != QuoteStatusSent {
		return nil, utils.NewConflictError("quote is " + string(quote.Status) + ", decision requires Sent")
	}

	if approve {
		quote.Status = QuoteStatusApproved
	} else {
		quote.Status = QuoteStatusScrapped
	}
	if err := config.GetDB().WithContext(ctx).Save(quote).Error; err != nil {
		config.LogError(config.GetLogger(), "quote", "CustomerDecideQuote", "save", quote.QuoteNumber, err)
		return nil, err
	}
	return quote, nil
}

func GetQuote(ctx context.Context, id int) (*Quote, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	return utils.FetchModel[Quote](ctx, businessId, id, "Items", "Customer")
}

// GetQuotes lists quotes, optionally scoped to one customer. Draft quotes are
// hidden when draftHidden is set (customer listing).
func GetQuotes(ctx context.Context, customerId int, draftHidden bool, status *QuoteStatus) ([]*Quote, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items").Where("business_id = ?", businessId)
	if customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", customerId)
	}
	if draftHidden {
		dbCtx = dbCtx.Where("status <> ?", QuoteStatusDraft)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	var quotes []*Quote
	if err := dbCtx.Order("id desc").Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}
