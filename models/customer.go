package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type Customer struct {
	ID              int       `gorm:"primary_key" json:"id"`
	BusinessId      string    `gorm:"index;not null" json:"business_id" binding:"required"`
	UserId          int       `gorm:"index;not null" json:"user_id"`
	Name            string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email           string    `gorm:"size:100;not null" json:"email"`
	Phone           string    `gorm:"size:20" json:"phone"`
	CompanyName     string    `gorm:"size:255" json:"company_name"`
	Gstin           string    `gorm:"size:30" json:"gstin"`
	PlaceOfSupply   string    `gorm:"size:100" json:"place_of_supply"`
	CustomerType    string    `gorm:"size:30;default:business" json:"customer_type"`
	BillingAddress  Address   `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	ShippingAddress Address   `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Address struct {
	Street  string `gorm:"size:255" json:"street"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:100" json:"state"`
	Country string `gorm:"size:100;default:India" json:"country"`
	Pincode string `gorm:"size:20" json:"pincode"`
}

type NewCustomer struct {
	Name            string   `json:"name" binding:"required"`
	Phone           string   `json:"phone"`
	CompanyName     string   `json:"company_name"`
	Gstin           string   `json:"gstin"`
	PlaceOfSupply   string   `json:"place_of_supply"`
	CustomerType    string   `json:"customer_type"`
	BillingAddress  *Address `json:"billing_address"`
	ShippingAddress *Address `json:"shipping_address"`
}

func (c Customer) GetCursor() string {
	return c.CreatedAt.String()
}

func (input *NewCustomer) validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return utils.NewValidationError("name is required")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number")
		}
	}
	return nil
}

// UpsertCustomerProfile creates or updates the customer profile owned by the
// authenticated user. One user maps to exactly one customer profile per
// business: the match is strictly by user id, and email uniqueness is enforced
// at write time so that duplicate profiles can never be created for one
// identity.
func UpsertCustomerProfile(ctx context.Context, input *NewCustomer) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	user, err := GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	db := config.GetDB()

	var existing Customer
	err = db.WithContext(ctx).
		Where("business_id = ? AND user_id = ?", businessId, userId).
		Take(&existing).Error
	notFound := err != nil

	billing := Address{Country: "India"}
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}
	shipping := billing
	if input.ShippingAddress != nil {
		shipping = *input.ShippingAddress
	}

	customerType := input.CustomerType
	if customerType == "" {
		customerType = "business"
	}

	if notFound {
		// email must not already belong to another customer profile
		if err := utils.ValidateUnique[Customer](ctx, businessId, "email", email, 0); err != nil {
			return nil, utils.NewConflictError("a customer profile already exists for this email")
		}

		customer := Customer{
			BusinessId:      businessId,
			UserId:          userId,
			Name:            input.Name,
			Email:           email,
			Phone:           input.Phone,
			CompanyName:     input.CompanyName,
			Gstin:           input.Gstin,
			PlaceOfSupply:   input.PlaceOfSupply,
			CustomerType:    customerType,
			BillingAddress:  billing,
			ShippingAddress: shipping,
		}
		if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
			return nil, err
		}
		return &customer, nil
	}

	existing.Name = input.Name
	existing.Phone = input.Phone
	existing.CompanyName = input.CompanyName
	existing.Gstin = input.Gstin
	existing.PlaceOfSupply = input.PlaceOfSupply
	existing.CustomerType = customerType
	existing.BillingAddress = billing
	existing.ShippingAddress = shipping

	if err := db.WithContext(ctx).Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// GetCustomerForUser resolves the single customer profile owned by the
// authenticated user. Unlike the legacy portal this never matches by email
// fallback; the write path guarantees at most one profile per user.
func GetCustomerForUser(ctx context.Context) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var customer Customer
	if err := db.WithContext(ctx).
		Where("business_id = ? AND user_id = ?", businessId, userId).
		Take(&customer).Error; err != nil {
		return nil, utils.NewNotFoundError("customer profile not found")
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Customer](ctx, businessId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("customer not found")
	}
	return result, nil
}

func GetCustomers(ctx context.Context, name *string) ([]*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var results []*Customer
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
