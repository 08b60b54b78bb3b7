package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

// ItemRequest is a customer's ask for a catalog item that does not exist yet.
// Approval by an admin inserts the item into the catalog.
type ItemRequest struct {
	ID              int               `gorm:"primary_key" json:"id"`
	BusinessId      string            `gorm:"size:36;index;not null" json:"business_id"`
	CustomerId      int               `gorm:"index;not null" json:"customer_id"`
	Customer        *Customer         `json:"customer,omitempty"`
	Name            string            `gorm:"size:255;not null" json:"name" binding:"required"`
	Description     *string           `gorm:"size:500" json:"description"`
	Unit            string            `gorm:"size:50;default:'unit'" json:"unit"`
	Quantity        decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Status          ItemRequestStatus `gorm:"type:enum('Pending','Approved','Rejected');default:'Pending'" json:"status"`
	RejectionReason *string           `gorm:"size:500" json:"rejection_reason"`
	ItemId          *int              `json:"item_id"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
}

func CreateItemRequest(ctx context.Context, input NewItemRequest) (*ItemRequest, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	customer, err := GetCustomerForUser(ctx)
	if err != nil {
		return nil, err
	}

	if !input.Quantity.IsPositive() {
		return nil, utils.NewValidationError("quantity must be positive")
	}

	request := ItemRequest{
		BusinessId:  businessId,
		CustomerId:  customer.ID,
		Name:        input.Name,
		Description: input.Description,
		Unit:        input.Unit,
		Quantity:    input.Quantity,
		Status:      ItemRequestStatusPending,
	}
	if request.Unit == "" {
		request.Unit = "unit"
	}

	err = config.GetDB().WithContext(ctx).Create(&request).Error
	if err != nil {
		config.LogError(config.GetLogger(), "itemRequest", "CreateItemRequest", "create", input, err)
		return nil, err
	}

	return &request, nil
}

// ApproveItemRequest approves a pending request and inserts the requested
// item into the catalog, both inside one transaction.
func ApproveItemRequest(ctx context.Context, id int, rate decimal.Decimal) (*ItemRequest, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	request, err := utils.FetchModel[ItemRequest](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if request.Status != ItemRequestStatusPending {
		return nil, utils.NewConflictError("item request is already " + string(request.Status))
	}
	if rate.IsNegative() {
		return nil, utils.NewValidationError("item rate must not be negative")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	item := Item{
		BusinessId:  businessId,
		Name:        request.Name,
		Description: request.Description,
		Unit:        request.Unit,
		Rate:        rate,
		IsActive:    true,
	}
	if err := tx.Create(&item).Error; err != nil {
		config.LogError(config.GetLogger(), "itemRequest", "ApproveItemRequest", "create item", request, err)
		return nil, err
	}

	request.Status = ItemRequestStatusApproved
	request.ItemId = &item.ID
	if err := tx.Save(request).Error; err != nil {
		config.LogError(config.GetLogger(), "itemRequest", "ApproveItemRequest", "save request", request, err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return request, nil
}

func RejectItemRequest(ctx context.Context, id int, reason string) (*ItemRequest, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	request, err := utils.FetchModel[ItemRequest](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if request.Status != ItemRequestStatusPending {
		return nil, utils.NewConflictError("item request is already " + string(request.Status))
	}

	request.Status = ItemRequestStatusRejected
	request.RejectionReason = &reason
	err = config.GetDB().WithContext(ctx).Save(request).Error
	if err != nil {
		config.LogError(config.GetLogger(), "itemRequest", "RejectItemRequest", "save", request, err)
		return nil, err
	}
	return request, nil
}

func GetItemRequest(ctx context.Context, id int) (*ItemRequest, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	return utils.FetchModel[ItemRequest](ctx, businessId, id, "Customer")
}

// GetItemRequests lists requests for the business, optionally filtered by
// status. When customerId > 0 only that customer's requests are returned.
func GetItemRequests(ctx context.Context, status *ItemRequestStatus, customerId int) ([]*ItemRequest, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Customer").Where("business_id = ?", businessId)
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", customerId)
	}

	var requests []*ItemRequest
	err := dbCtx.Order("id desc").Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}
