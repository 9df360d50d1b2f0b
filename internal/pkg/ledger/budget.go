package ledger

import (
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pincerlabs/pincer/app/models"
	"github.com/shopspring/decimal"
)

// BudgetManager enforces the non-negative, race-free campaign budget. The
// atomicity itself lives in the store (conditional single-statement
// updates), so correctness holds across process restarts; this type adds
// amount validation and logging on top of the repository.
type BudgetManager struct {
	repo Repository
}

// NewBudgetManager creates a budget manager over a ledger repository.
func NewBudgetManager(repo Repository) *BudgetManager {
	return &BudgetManager{repo: repo}
}

// Reserve debits amount from the campaign's remaining budget, or fails with
// ErrBudgetExhausted / ErrCampaignNotFound / ErrCampaignInactive. Concurrent
// reservations against the same campaign are linearized by the store.
func (b *BudgetManager) Reserve(campaignID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if err := b.repo.ReserveBudget(campaignID, amount); err != nil {
		return err
	}
	fiberlog.Infof("reserved %s from campaign %s", amount.String(), campaignID)
	return nil
}

// Release rolls a reservation back after a failure that provably occurred
// before any payout was attempted. Never exceeds the campaign's total
// budget. Must NOT be called for ambiguous payout outcomes.
func (b *BudgetManager) Release(campaignID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.ErrInvalidAmount
	}
	if err := b.repo.ReleaseBudget(campaignID, amount); err != nil {
		return err
	}
	fiberlog.Infof("released %s back to campaign %s", amount.String(), campaignID)
	return nil
}
