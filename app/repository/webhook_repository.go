package repository

import (
	"github.com/pincerlabs/pincer/app/models"
	"gorm.io/gorm"
)

type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) GetByID(webhookID string) (*models.WebhookEvent, error) {
	var ev models.WebhookEvent
	err := r.db.Where("webhook_id = ?", webhookID).First(&ev).Error
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *webhookEventRepository) ListBySession(sessionID string) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Where("session_id = ?", sessionID).Order("received_at ASC").Find(&events).Error
	return events, err
}

func (r *webhookEventRepository) ListRecent(limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Order("received_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
