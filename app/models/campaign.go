package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a monetary field is negative, zero where
// a positive value is required, or violates remaining <= total.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// Campaign is a sponsor's rebate offer with a finite budget. Campaigns are
// created by admin provisioning and only ever deactivated, never deleted.
// RemainingBudget is mutated exclusively through the conditional budget
// updates in the campaign repository so that 0 <= remaining <= total holds
// under concurrent reservations.
type Campaign struct {
	ID              string          `gorm:"primaryKey;type:varchar(64)" json:"campaign_id" validate:"required,min=3,max=64"`
	MerchantID      string          `gorm:"type:varchar(64);not null;index" json:"merchant_id" validate:"required,max=64"`
	MerchantName    string          `gorm:"type:varchar(150);not null" json:"merchant_name" validate:"required,max=150"`
	OfferText       string          `gorm:"type:text" json:"offer_text" validate:"max=1000"`
	RebateAmount    decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rebate_amount"`
	RebateAsset     string          `gorm:"type:varchar(20);not null" json:"rebate_asset" validate:"required,max=20"`
	RebateNetwork   string          `gorm:"type:varchar(100);not null" json:"rebate_network" validate:"required,max=100"`
	TotalBudget     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total_budget"`
	RemainingBudget decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"remaining_budget"`
	BudgetAsset     string          `gorm:"type:varchar(20);not null" json:"budget_asset" validate:"required,max=20"`
	ConversionCount int64           `gorm:"not null;default:0" json:"conversion_count"`
	Active          bool            `gorm:"not null;default:true;index" json:"active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Campaign) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	return c.validateAmounts()
}

func (c *Campaign) validateAmounts() error {
	if c.RebateAmount.IsNegative() || c.RebateAmount.IsZero() {
		return ErrInvalidAmount
	}
	if c.TotalBudget.IsNegative() {
		return ErrInvalidAmount
	}
	if c.RemainingBudget.IsNegative() || c.RemainingBudget.GreaterThan(c.TotalBudget) {
		return ErrInvalidAmount
	}
	return nil
}

// CanFund reports whether the remaining budget covers one rebate.
func (c *Campaign) CanFund() bool {
	return c.Active && c.RemainingBudget.GreaterThanOrEqual(c.RebateAmount)
}
