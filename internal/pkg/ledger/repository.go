package ledger

import (
	"errors"
	"time"

	"github.com/pincerlabs/pincer/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the settlement service.
// Every mutation that carries a correctness obligation (insert-if-absent,
// conditional budget updates, the settled+flag transaction) lives here so
// the store, not application logic, enforces it.
type Repository interface {
	CreateWebhookIfNotExists(ev *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	FinalizeWebhook(webhookID, outcome, resultJSON, errMsg string) error

	CreateSessionIfNotExists(s *models.PaymentSession) (bool, error)
	GetSession(sessionID string) (*models.PaymentSession, error)

	GetCampaign(id string) (*models.Campaign, error)
	ListFundableCampaigns() ([]models.Campaign, error)
	ReserveBudget(campaignID string, amount decimal.Decimal) error
	ReleaseBudget(campaignID string, amount decimal.Decimal) error

	CreateSettlement(st *models.Settlement) error
	SetSettlementState(settlementID, state string) error
	MarkSettled(settlementID, sessionID, txRef string) error
	MarkSettlementFailed(settlementID, reason string) error
	GetSettlementBySession(sessionID string) (*models.Settlement, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateWebhookIfNotExists is the atomic insert-if-absent admission check.
// The primary key on webhook_id plus OnConflict DoNothing make the
// check-then-act race-free: exactly one concurrent caller observes
// created=true, everyone else gets the stored row.
func (r *gormRepository) CreateWebhookIfNotExists(ev *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "webhook_id"}},
		DoNothing: true,
	}).Create(ev)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("webhook_id = ?", ev.WebhookID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) FinalizeWebhook(webhookID, outcome, resultJSON, errMsg string) error {
	now := time.Now()
	return r.db.Model(&models.WebhookEvent{}).
		Where("webhook_id = ?", webhookID).
		Updates(map[string]interface{}{
			"outcome":       outcome,
			"result_json":   resultJSON,
			"error_message": errMsg,
			"processed_at":  &now,
		}).Error
}

func (r *gormRepository) CreateSessionIfNotExists(s *models.PaymentSession) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(s)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetSession(sessionID string) (*models.PaymentSession, error) {
	var s models.PaymentSession
	err := r.db.Where("session_id = ?", sessionID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *gormRepository) GetCampaign(id string) (*models.Campaign, error) {
	var c models.Campaign
	err := r.db.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) ListFundableCampaigns() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.
		Where("active = ? AND remaining_budget >= rebate_amount", true).
		Order("created_at ASC").
		Find(&campaigns).Error
	return campaigns, err
}

// ReserveBudget debits the campaign budget in one conditional UPDATE: the
// remaining >= amount check and the decrement are a single statement, so no
// interleaving of concurrent reservations can drive the budget negative.
func (r *gormRepository) ReserveBudget(campaignID string, amount decimal.Decimal) error {
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND active = ? AND remaining_budget >= ?", campaignID, true, amount).
		Updates(map[string]interface{}{
			"remaining_budget": gorm.Expr("remaining_budget - ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Disambiguate why the conditional update missed.
	var c models.Campaign
	err := r.db.Select("active").Where("id = ?", campaignID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCampaignNotFound
	}
	if err != nil {
		return err
	}
	if !c.Active {
		return ErrCampaignInactive
	}
	return ErrBudgetExhausted
}

// ReleaseBudget returns a reservation after a failure that provably happened
// before any funds moved. The LEAST cap keeps remaining <= total even if a
// release is ever replayed.
func (r *gormRepository) ReleaseBudget(campaignID string, amount decimal.Decimal) error {
	var c models.Campaign
	err := r.db.Select("id").Where("id = ?", campaignID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCampaignNotFound
	}
	if err != nil {
		return err
	}

	return r.db.Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		Updates(map[string]interface{}{
			"remaining_budget": gorm.Expr("LEAST(total_budget, remaining_budget + ?)", amount),
		}).Error
}

func (r *gormRepository) CreateSettlement(st *models.Settlement) error {
	return r.db.Create(st).Error
}

func (r *gormRepository) SetSettlementState(settlementID, state string) error {
	return r.db.Model(&models.Settlement{}).
		Where("settlement_id = ?", settlementID).
		Updates(map[string]interface{}{"state": state}).Error
}

// MarkSettled is the point of no return: the settlement's terminal success
// state and the session's rebate_settled flag are committed in one durable
// transaction, so a crash between them cannot leave money moved with an
// unmarked session (nor the reverse).
func (r *gormRepository) MarkSettled(settlementID, sessionID, txRef string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Settlement{}).
			Where("settlement_id = ?", settlementID).
			Updates(map[string]interface{}{
				"state":  models.SettlementStateSettled,
				"tx_ref": txRef,
			}).Error; err != nil {
			return err
		}

		res := tx.Model(&models.PaymentSession{}).
			Where("session_id = ? AND rebate_settled = ?", sessionID, false).
			Updates(map[string]interface{}{
				"rebate_settled": true,
				"settlement_id":  settlementID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionAlreadySettled
		}
		return nil
	})
}

func (r *gormRepository) MarkSettlementFailed(settlementID, reason string) error {
	return r.db.Model(&models.Settlement{}).
		Where("settlement_id = ?", settlementID).
		Updates(map[string]interface{}{
			"state":          models.SettlementStateFailed,
			"failure_reason": reason,
		}).Error
}

func (r *gormRepository) GetSettlementBySession(sessionID string) (*models.Settlement, error) {
	var st models.Settlement
	err := r.db.Where("session_id = ?", sessionID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
