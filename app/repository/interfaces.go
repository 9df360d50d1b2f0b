package repository

import (
	"github.com/pincerlabs/pincer/app/models"
)

// CampaignRepository defines the interface for campaign provisioning and
// read operations. Budget mutation is NOT exposed here; it goes through the
// ledger repository's conditional updates only.
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	GetByID(id string) (*models.Campaign, error)
	List(offset, limit int) ([]models.Campaign, error)
	ListActive() ([]models.Campaign, error)
	Count() (int64, error)
	Update(campaign *models.Campaign) error
	SetActive(id string, active bool) error
}

// SettlementRepository defines the read interface used by operators to
// inspect payout history, including settlements parked for manual
// reconciliation.
type SettlementRepository interface {
	GetByID(settlementID string) (*models.Settlement, error)
	ListByCampaign(campaignID string, offset, limit int) ([]models.Settlement, error)
	ListByState(state string, offset, limit int) ([]models.Settlement, error)
	ListRecent(limit int) ([]models.Settlement, error)
}

// WebhookEventRepository defines the read interface for inbound
// notification history.
type WebhookEventRepository interface {
	GetByID(webhookID string) (*models.WebhookEvent, error)
	ListBySession(sessionID string) ([]models.WebhookEvent, error)
	ListRecent(limit int) ([]models.WebhookEvent, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	Campaign     CampaignRepository
	Settlement   SettlementRepository
	WebhookEvent WebhookEventRepository
}
