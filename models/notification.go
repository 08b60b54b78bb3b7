package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

// NotificationRecord is the transactional outbox row for customer-facing
// notifications. It is written inside the same transaction as the business
// change; a background dispatcher publishes it to Pub/Sub after commit.
type NotificationRecord struct {
	ID            int                   `gorm:"primary_key;index:idx_notification_dispatch,priority:3" json:"id"`
	BusinessId    string                `gorm:"size:36;not null;index" json:"business_id"`
	EventType     NotificationEventType `gorm:"size:50;not null" json:"event_type"`
	ReferenceId   int                   `json:"reference_id"`
	ReferenceType string                `gorm:"size:50" json:"reference_type"`
	Recipient     string                `gorm:"size:255" json:"recipient"`
	Payload       []byte                `gorm:"type:blob" json:"payload"`
	PublishStatus string                `gorm:"size:20;index;not null;default:'PENDING';index:idx_notification_dispatch,priority:1" json:"publish_status"`
	PublishedAt   *time.Time            `gorm:"index" json:"published_at"`
	MessageId     *string               `gorm:"size:255" json:"message_id"`
	Attempts      int                   `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt *time.Time            `gorm:"index;index:idx_notification_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt      *time.Time            `gorm:"index" json:"locked_at"`
	LockedBy      *string               `gorm:"size:100" json:"locked_by"`
	LastError     *string               `gorm:"type:text" json:"last_error"`
	CorrelationId string                `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// PublishNotificationRecord writes an outbox row on the caller's transaction.
// Nothing is published here; the dispatcher picks the row up after commit.
func PublishNotificationRecord(ctx context.Context, tx *gorm.DB, businessId string,
	eventType NotificationEventType, refId int, refType string, recipient string, payload interface{}) error {

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	record := NotificationRecord{
		BusinessId:    businessId,
		EventType:     eventType,
		ReferenceId:   refId,
		ReferenceType: refType,
		Recipient:     recipient,
		Payload:       payloadJSON,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func ConvertToNotificationMessage(record NotificationRecord) config.NotificationMessage {
	return config.NotificationMessage{
		ID:            record.ID,
		BusinessId:    record.BusinessId,
		EventType:     string(record.EventType),
		ReferenceId:   record.ReferenceId,
		ReferenceType: record.ReferenceType,
		Recipient:     record.Recipient,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}
