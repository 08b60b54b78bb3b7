package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type Item struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:36;index;not null" json:"business_id"`
	Name        string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Description *string         `gorm:"size:500" json:"description"`
	Unit        string          `gorm:"size:50;default:'unit'" json:"unit"`
	Rate        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Unit        string          `json:"unit"`
	Rate        decimal.Decimal `json:"rate"`
	IsActive    *bool           `json:"is_active"`
}

func CreateItem(ctx context.Context, input NewItem) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if input.Rate.IsNegative() {
		return nil, utils.NewValidationError("item rate must not be negative")
	}

	err := utils.ValidateUnique[Item](ctx, businessId, "name", input.Name, 0)
	if err != nil {
		return nil, err
	}

	item := Item{
		BusinessId:  businessId,
		Name:        input.Name,
		Description: input.Description,
		Unit:        input.Unit,
		Rate:        input.Rate,
		IsActive:    true,
	}
	if item.Unit == "" {
		item.Unit = "unit"
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	err = config.GetDB().WithContext(ctx).Create(&item).Error
	if err != nil {
		config.LogError(config.GetLogger(), "item", "CreateItem", "create", input, err)
		return nil, err
	}

	return &item, nil
}

func UpdateItem(ctx context.Context, id int, input NewItem) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	if input.Rate.IsNegative() {
		return nil, utils.NewValidationError("item rate must not be negative")
	}

	err = utils.ValidateUnique[Item](ctx, businessId, "name", input.Name, id)
	if err != nil {
		return nil, err
	}

	item.Name = input.Name
	item.Description = input.Description
	item.Rate = input.Rate
	if input.Unit != "" {
		item.Unit = input.Unit
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	err = config.GetDB().WithContext(ctx).Save(item).Error
	if err != nil {
		config.LogError(config.GetLogger(), "item", "UpdateItem", "save", input, err)
		return nil, err
	}

	return item, nil
}

func GetItem(ctx context.Context, id int) (*Item, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	return utils.FetchModel[Item](ctx, businessId, id)
}

func GetItems(ctx context.Context, activeOnly bool) ([]*Item, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}

	var items []*Item
	err := dbCtx.Order("name asc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
