package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type User struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index" json:"business_id"`
	Username   string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email      *string   `gorm:"size:100;unique" json:"email"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Password   string    `gorm:"size:255;not null" json:"-"`
	IsActive   *bool     `gorm:"not null" json:"is_active"`
	Role       UserRole  `gorm:"type:enum('A', 'O', 'C');default:C" json:"role"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	BusinessId string `json:"business_id"`
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (input *NewUser) validate() error {
	if !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email address")
	}
	if len(input.Password) < 6 {
		return utils.NewValidationError("password must be at least 6 characters")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number")
		}
	}
	return nil
}

// RegisterUser creates a user account. The registration surface only issues
// Customer accounts; admins are provisioned with cmd/seed-admin.
func RegisterUser(ctx context.Context, businessId string, input *NewUser) (*User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	business, err := GetBusinessById(ctx, businessId)
	if err != nil {
		return nil, utils.NewValidationError("unknown business")
	}
	if business.IsActive != nil && !*business.IsActive {
		return nil, utils.NewValidationError("business is not active")
	}

	role := UserRoleCustomer
	if input.Role != "" {
		parsed, err := ParseUserRole(input.Role)
		if err != nil {
			return nil, utils.NewValidationError("invalid user role")
		}
		if parsed != UserRoleCustomer {
			return nil, utils.NewValidationError("only customer accounts can self-register")
		}
		role = parsed
	}

	email := html.EscapeString(strings.TrimSpace(strings.ToLower(input.Email)))

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("an account with this email already exists")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		BusinessId: businessId,
		Username:   email,
		Name:       strings.TrimSpace(input.Name),
		Email:      &email,
		Phone:      input.Phone,
		Password:   string(hashed),
		IsActive:   utils.NewTrue(),
		Role:       role,
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		// Two registrations can race past the count check; the unique index
		// on username is the real guard.
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("an account with this email already exists")
		}
		return nil, err
	}

	return &user, nil
}

// AuthenticateUser verifies credentials and returns the user plus a signed JWT.
func AuthenticateUser(ctx context.Context, input *LoginInput) (*User, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("username = ? OR email = ?", email, email).Take(&user).Error; err != nil {
		return nil, "", utils.NewNotFoundError("account not found")
	}

	if user.IsActive != nil && !*user.IsActive {
		return nil, "", errors.New("account is disabled")
	}

	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return nil, "", utils.NewValidationError("invalid credentials")
	}

	token, err := utils.JwtGenerate(user.ID, user.Username, string(user.Role), user.BusinessId)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, utils.NewNotFoundError("user not found")
	}
	return &user, nil
}
