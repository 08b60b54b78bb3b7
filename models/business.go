package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/billing_portal/config"
)

type Business struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Timezone  string    `gorm:"size:100;default:Asia/Kolkata" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	if businessId == "" {
		return nil, errors.New("business id is required")
	}

	var business Business
	cacheKey := "Business:" + businessId
	exists, err := config.GetRedisObject(cacheKey, &business)
	if err != nil {
		return nil, err
	}
	if exists {
		return &business, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).First(&business, "id = ?", businessId).Error; err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(cacheKey, business, 0); err != nil {
		return nil, err
	}
	return &business, nil
}
