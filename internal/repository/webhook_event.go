package repository

import (
	"context"
	"storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventRepository keeps an audit row per verified provider event.
type WebhookEventRepository interface {
	MarkReceived(ctx context.Context, eventID, eventType string) error
	MarkProcessed(ctx context.Context, eventID string) error
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

func (r *webhookEventRepositoryImpl) MarkReceived(ctx context.Context, eventID, eventType string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WebhookEvent{
			EventID:    eventID,
			EventType:  eventType,
			ReceivedAt: time.Now(),
		}).Error
}

func (r *webhookEventRepositoryImpl) MarkProcessed(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Update("processed_at", time.Now()).Error
}
