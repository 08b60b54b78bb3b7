package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type PaymentMode struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"size:36;index;not null" json:"business_id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPaymentMode struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

func CreatePaymentMode(ctx context.Context, input NewPaymentMode) (*PaymentMode, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	err := utils.ValidateUnique[PaymentMode](ctx, businessId, "name", input.Name, 0)
	if err != nil {
		return nil, err
	}

	paymentMode := PaymentMode{
		BusinessId: businessId,
		Name:       input.Name,
		IsActive:   true,
	}
	if input.IsActive != nil {
		paymentMode.IsActive = *input.IsActive
	}

	err = config.GetDB().WithContext(ctx).Create(&paymentMode).Error
	if err != nil {
		config.LogError(config.GetLogger(), "paymentMode", "CreatePaymentMode", "create", input, err)
		return nil, err
	}

	return &paymentMode, nil
}

func UpdatePaymentMode(ctx context.Context, id int, input NewPaymentMode) (*PaymentMode, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	paymentMode, err := utils.FetchModel[PaymentMode](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	err = utils.ValidateUnique[PaymentMode](ctx, businessId, "name", input.Name, id)
	if err != nil {
		return nil, err
	}

	paymentMode.Name = input.Name
	if input.IsActive != nil {
		paymentMode.IsActive = *input.IsActive
	}

	err = config.GetDB().WithContext(ctx).Save(paymentMode).Error
	if err != nil {
		config.LogError(config.GetLogger(), "paymentMode", "UpdatePaymentMode", "save", input, err)
		return nil, err
	}

	return paymentMode, nil
}

func GetPaymentMode(ctx context.Context, id int) (*PaymentMode, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	return utils.FetchModel[PaymentMode](ctx, businessId, id)
}

func GetPaymentModes(ctx context.Context) ([]*PaymentMode, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	return utils.FetchAllModels[PaymentMode](ctx, businessId)
}
