package repository

import (
	"github.com/pincerlabs/pincer/app/models"
	"gorm.io/gorm"
)

type settlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a new settlement repository instance
func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) GetByID(settlementID string) (*models.Settlement, error) {
	var st models.Settlement
	err := r.db.Where("settlement_id = ?", settlementID).First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *settlementRepository) ListByCampaign(campaignID string, offset, limit int) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&settlements).Error
	return settlements, err
}

// ListByState is the reconciliation query: state=failed with
// failure_reason=ambiguous_payout lists every settlement whose funds may
// have moved without a recorded transaction reference.
func (r *settlementRepository) ListByState(state string, offset, limit int) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := r.db.Where("state = ?", state).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&settlements).Error
	return settlements, err
}

func (r *settlementRepository) ListRecent(limit int) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := r.db.Order("created_at DESC").Limit(limit).Find(&settlements).Error
	return settlements, err
}
