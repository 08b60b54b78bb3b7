package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/models"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

var tracer = otel.Tracer("billing-portal")

// VerifyPayment moves a pending payment to Verified and posts its allocations
// onto the invoices, all in one transaction. Verified and Rejected are final:
// a payment already decided conflicts, it is never re-posted. Serialization is
// a per-business MySQL advisory lock; the redis lock in front of it is only a
// best-effort optimization and reliability never depends on Redis.
func VerifyPayment(ctx context.Context, paymentId int) (*models.Payment, error) {
	return decidePayment(ctx, paymentId, models.PaymentStatusVerified, nil)
}

// RejectPayment moves a pending payment to Rejected. Rejected payments never
// count toward any invoice, so no balance moves.
func RejectPayment(ctx context.Context, paymentId int, reason string) (*models.Payment, error) {
	return decidePayment(ctx, paymentId, models.PaymentStatusRejected, &reason)
}

func decidePayment(ctx context.Context, paymentId int, next models.PaymentStatus, reason *string) (*models.Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	logger := config.GetLogger()

	ctx, span := tracer.Start(ctx, "decidePayment")
	span.SetAttributes(
		attribute.String("business_id", businessId),
		attribute.Int("payment_id", paymentId),
		attribute.String("next_status", string(next)),
	)
	defer span.End()

	lock := obtainBusinessLock(ctx, logger, businessId)
	defer releaseBusinessLock(ctx, logger, businessId, lock)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
		config.LogError(logger, "paymentVerificationWorkflow", "decidePayment", "AcquireBusinessPostingLock", businessId, err)
		return nil, err
	}
	// GET_LOCK is connection-scoped, not transaction-scoped: it survives the
	// commit and RELEASE_LOCK on a finished tx is a no-op, which would leave
	// the lock stuck to the pooled connection. Release on the still-open tx
	// before commit; the deferred release covers the error paths.
	postingLockHeld := true
	defer func() {
		if postingLockHeld {
			ReleaseBusinessPostingLock(tx, businessId)
		}
	}()

	var payment models.Payment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Allocations").
		Where("business_id = ?", businessId).
		First(&payment, paymentId).Error
	if err != nil {
		return nil, utils.NewNotFoundError(fmt.Sprintf("payment %d not found", paymentId))
	}

	if payment.Status.IsTerminal() {
		return nil, utils.NewConflictError(
			fmt.Sprintf("payment %s is already %s", payment.PaymentNumber, payment.Status))
	}

	now := time.Now()
	verifier, _ := utils.GetUserNameFromContext(ctx)
	updates := map[string]interface{}{
		"status": next,
	}
	if next == models.PaymentStatusVerified {
		updates["verified_at"] = &now
		updates["verified_by"] = &verifier
	}
	if reason != nil {
		updates["rejection_reason"] = reason
	}
	if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(updates).Error; err != nil {
		config.LogError(logger, "paymentVerificationWorkflow", "decidePayment", "update payment", payment.PaymentNumber, err)
		return nil, err
	}
	payment.Status = next
	payment.RejectionReason = reason
	if next == models.PaymentStatusVerified {
		payment.VerifiedAt = &now
		payment.VerifiedBy = &verifier
	}

	if next == models.PaymentStatusVerified {
		for _, allocation := range payment.Allocations {
			invoice, err := models.RecomputeInvoiceBalanceTx(ctx, tx, businessId, allocation.InvoiceId)
			if err != nil {
				config.LogError(logger, "paymentVerificationWorkflow", "decidePayment", "RecomputeInvoiceBalanceTx", allocation.InvoiceId, err)
				return nil, err
			}
			activity := fmt.Sprintf("Payment %s of %s verified, balance due %s",
				payment.PaymentNumber, allocation.AppliedAmount.String(), invoice.BalanceDue.String())
			if err := models.AppendInvoiceActivity(ctx, tx, businessId, invoice.ID, activity); err != nil {
				return nil, err
			}
		}
	}

	recipient := ""
	var customer models.Customer
	if err := tx.Where("business_id = ? AND id = ?", businessId, payment.CustomerId).
		Take(&customer).Error; err == nil {
		recipient = customer.Email
	}
	eventType := models.NotificationEventPaymentVerified
	if next == models.PaymentStatusRejected {
		eventType = models.NotificationEventPaymentRejected
	}
	if err := models.PublishNotificationRecord(ctx, tx, businessId, eventType,
		payment.ID, "payment", recipient, payment); err != nil {
		return nil, err
	}

	ReleaseBusinessPostingLock(tx, businessId)
	postingLockHeld = false

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"field":          "decidePayment",
		"business_id":    businessId,
		"payment_id":     payment.ID,
		"payment_number": payment.PaymentNumber,
		"status":         string(next),
	}).Info("payment decision posted")

	return &payment, nil
}

// obtainBusinessLock is the best-effort redis fence in front of the advisory
// lock. Missing Redis or a contended key only logs a warning.
func obtainBusinessLock(ctx context.Context, logger *logrus.Logger, businessId string) *redislock.Lock {
	redisLock := config.GetRedisLock()
	if redisLock == nil {
		logger.WithFields(logrus.Fields{
			"field":       "obtainBusinessLock",
			"business_id": businessId,
		}).Warn("redis lock not ready; proceeding without redis lock")
		return nil
	}

	lock, err := redisLock.Obtain(ctx, fmt.Sprintf("lock:%s", businessId), 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		logger.WithFields(logrus.Fields{
			"field":       "obtainBusinessLock",
			"business_id": businessId,
		}).Warn("could not obtain redis lock; proceeding without redis lock")
		return nil
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"field":       "obtainBusinessLock",
			"business_id": businessId,
		}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return nil
	}
	return lock
}

func releaseBusinessLock(ctx context.Context, logger *logrus.Logger, businessId string, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	if err := lock.Release(ctx); err != nil {
		logger.WithFields(logrus.Fields{
			"field":       "releaseBusinessLock",
			"business_id": businessId,
		}).Warn("failed to release redis lock: " + err.Error())
	}
}
