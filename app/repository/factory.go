package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// NewRepositories wires all repository implementations to one DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Campaign:     NewCampaignRepository(db),
		Settlement:   NewSettlementRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetCampaignRepository returns the campaign repository instance
func (f *Factory) GetCampaignRepository() CampaignRepository {
	return f.GetRepositories().Campaign
}

// GetSettlementRepository returns the settlement repository instance
func (f *Factory) GetSettlementRepository() SettlementRepository {
	return f.GetRepositories().Settlement
}

// GetWebhookEventRepository returns the webhook event repository instance
func (f *Factory) GetWebhookEventRepository() WebhookEventRepository {
	return f.GetRepositories().WebhookEvent
}

var (
	globalFactory *Factory
	globalOnce    sync.Once
)

// InitGlobalFactory sets up the process-wide repository factory.
func InitGlobalFactory(db *gorm.DB) {
	globalOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the process-wide repository factory.
func GetGlobalFactory() *Factory {
	return globalFactory
}
