package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

type Payment struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	BusinessId      string              `gorm:"size:36;index;not null" json:"business_id"`
	CustomerId      int                 `gorm:"index;not null" json:"customer_id"`
	Customer        *Customer           `json:"customer,omitempty"`
	SequenceNo      int64               `gorm:"index;not null" json:"sequence_no"`
	PaymentNumber   string              `gorm:"size:50;not null" json:"payment_number"`
	PaymentDate     time.Time           `gorm:"index;not null" json:"payment_date"`
	Amount          decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"amount"`
	UnusedAmount    decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"unused_amount"`
	PaymentModeId   *int                `json:"payment_mode_id"`
	PaymentMode     *PaymentMode        `json:"payment_mode,omitempty"`
	ReferenceNumber string              `gorm:"size:100" json:"reference_number"`
	Notes           *string             `gorm:"size:500" json:"notes"`
	Status          PaymentStatus       `gorm:"type:enum('Pending Verification','Verified','Rejected');default:'Pending Verification'" json:"status"`
	RejectionReason *string             `gorm:"size:500" json:"rejection_reason"`
	VerifiedAt      *time.Time          `json:"verified_at"`
	VerifiedBy      *string             `gorm:"size:100" json:"verified_by"`
	Allocations     []PaymentAllocation `json:"allocations"`
	Documents       []Document          `gorm:"-" json:"documents,omitempty"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PaymentAllocation struct {
	ID            int             `gorm:"primary_key" json:"id"`
	PaymentId     int             `gorm:"index;not null" json:"payment_id"`
	InvoiceId     int             `gorm:"index;not null" json:"invoice_id"`
	AppliedAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"applied_amount"`
}

// NewPaymentAllocation is one requested invoice application within a payment.
type NewPaymentAllocation struct {
	InvoiceId     int             `json:"invoice_id" binding:"required"`
	AppliedAmount decimal.Decimal `json:"applied_amount" binding:"required"`
}

type NewPayment struct {
	Amount          decimal.Decimal        `json:"amount" binding:"required"`
	PaymentDate     *time.Time             `json:"payment_date"`
	PaymentModeId   *int                   `json:"payment_mode_id"`
	ReferenceNumber string                 `json:"reference_number"`
	Notes           *string                `json:"notes"`
	Allocations     []NewPaymentAllocation `json:"allocations" binding:"required"`
	Documents       []*NewDocument         `json:"documents"`
}

func (p Payment) GetCursor() string {
	return p.CreatedAt.String()
}

// CreatePayment records a customer payment in Pending Verification. The
// allocation set is validated against the payment amount and every allocated
// invoice must be a payable invoice of the calling customer. No balance is
// touched here; balances move only when an admin verifies the payment.
func CreatePayment(ctx context.Context, input NewPayment) (*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	customer, err := GetCustomerForUser(ctx)
	if err != nil {
		return nil, err
	}

	unused, err := ValidateAllocations(input.Amount, input.Allocations)
	if err != nil {
		return nil, err
	}

	invoices := make([]*Invoice, 0, len(input.Allocations))
	for _, a := range input.Allocations {
		invoice, err := utils.FetchModel[Invoice](ctx, businessId, a.InvoiceId)
		if err != nil || invoice.CustomerId != customer.ID {
			return nil, utils.NewNotFoundError(fmt.Sprintf("invoice %d not found", a.InvoiceId))
		}
		if invoice.Status == InvoiceStatusDraft || invoice.Status == InvoiceStatusVoid {
			return nil, utils.NewValidationError(
				fmt.Sprintf("invoice %s is %s and cannot receive payments", invoice.InvoiceNumber, invoice.Status))
		}
		invoices = append(invoices, invoice)
	}

	if input.PaymentModeId != nil {
		if _, err := utils.FetchModel[PaymentMode](ctx, businessId, *input.PaymentModeId); err != nil {
			return nil, utils.NewValidationError("unknown payment mode")
		}
	}

	seqNo, err := utils.GetSequence[Payment](ctx, businessId)
	if err != nil {
		return nil, err
	}

	paymentDate := time.Now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	allocations := make([]PaymentAllocation, 0, len(input.Allocations))
	for _, a := range input.Allocations {
		allocations = append(allocations, PaymentAllocation{
			InvoiceId:     a.InvoiceId,
			AppliedAmount: a.AppliedAmount,
		})
	}

	payment := Payment{
		BusinessId:      businessId,
		CustomerId:      customer.ID,
		SequenceNo:      seqNo,
		PaymentNumber:   fmt.Sprintf("PMT-%05d", seqNo),
		PaymentDate:     paymentDate,
		Amount:          input.Amount,
		UnusedAmount:    unused,
		PaymentModeId:   input.PaymentModeId,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		Status:          PaymentStatusPendingVerification,
		Allocations:     allocations,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	if err := tx.Create(&payment).Error; err != nil {
		config.LogError(config.GetLogger(), "payment", "CreatePayment", "create", payment.PaymentNumber, err)
		return nil, err
	}

	documents := mapNewDocuments(input.Documents)
	for _, doc := range documents {
		doc.ReferenceType = "payment"
		doc.ReferenceId = payment.ID
		if err := tx.Create(doc).Error; err != nil {
			config.LogError(config.GetLogger(), "payment", "CreatePayment", "create document", doc.Name, err)
			return nil, err
		}
		payment.Documents = append(payment.Documents, *doc)
	}

	for _, invoice := range invoices {
		if err := AppendInvoiceActivity(ctx, tx, businessId, invoice.ID,
			fmt.Sprintf("Payment %s recorded, pending verification", payment.PaymentNumber)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	payment, err := utils.FetchModel[Payment](ctx, businessId, id, "Allocations", "Customer", "PaymentMode")
	if err != nil {
		return nil, utils.NewNotFoundError("payment not found")
	}
	if err := loadPaymentDocuments(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPaymentForCustomer fetches a payment, enforcing ownership.
func GetPaymentForCustomer(ctx context.Context, id int) (*Payment, error) {
	customer, err := GetCustomerForUser(ctx)
	if err != nil {
		return nil, err
	}
	payment, err := GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.CustomerId != customer.ID {
		return nil, utils.NewNotFoundError("payment not found")
	}
	return payment, nil
}

func loadPaymentDocuments(ctx context.Context, payment *Payment) error {
	db := config.GetDB()
	return db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", "payment", payment.ID).
		Find(&payment.Documents).Error
}

// GetPayments lists payments for the business. customerId > 0 scopes to one
// customer; a non-nil status filters (admin verification queue).
func GetPayments(ctx context.Context, customerId int, status *PaymentStatus) ([]*Payment, error) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Allocations").Preload("PaymentMode").
		Where("business_id = ?", businessId)
	if customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", customerId)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	var payments []*Payment
	if err := dbCtx.Order("id desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
