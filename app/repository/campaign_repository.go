package repository

import (
	"github.com/pincerlabs/pincer/app/models"
	"gorm.io/gorm"
)

type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository instance
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(campaign *models.Campaign) error {
	if err := campaign.Validate(); err != nil {
		return err
	}
	return r.db.Create(campaign).Error
}

func (r *campaignRepository) GetByID(id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Where("id = ?", id).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) List(offset, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) ListActive() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("active = ?", true).Order("created_at ASC").Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Campaign{}).Count(&count).Error
	return count, err
}

// Update persists campaign fields that are safe to edit after provisioning.
// Budget columns are deliberately excluded so admin edits can never race the
// ledger's conditional reserve/release updates.
func (r *campaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Model(&models.Campaign{}).
		Where("id = ?", campaign.ID).
		Updates(map[string]interface{}{
			"merchant_name": campaign.MerchantName,
			"offer_text":    campaign.OfferText,
			"active":        campaign.Active,
		}).Error
}

func (r *campaignRepository) SetActive(id string, active bool) error {
	var c models.Campaign
	if err := r.db.Select("id").Where("id = ?", id).First(&c).Error; err != nil {
		return err
	}
	return r.db.Model(&models.Campaign{}).Where("id = ?", id).Update("active", active).Error
}
