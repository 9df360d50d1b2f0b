package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSession tracks one verified x402 payment that is eligible for at
// most one rebate. RebateSettled is monotonic: it flips false -> true inside
// the same transaction that moves the settlement to its terminal success
// state, and never reverts.
type PaymentSession struct {
	SessionID     string          `gorm:"primaryKey;type:varchar(100)" json:"session_id"`
	CampaignID    string          `gorm:"type:varchar(64);index" json:"campaign_id"`
	UserAddress   string          `gorm:"type:varchar(128);not null;index" json:"user_address"`
	Network       string          `gorm:"type:varchar(100);not null" json:"network"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount_paid"`
	PaymentAsset  string          `gorm:"type:varchar(20);not null;default:'USDC'" json:"payment_asset"`
	PaymentHash   string          `gorm:"type:varchar(128);default:null" json:"payment_hash,omitempty"`
	VerifiedAt    time.Time       `gorm:"not null" json:"verified_at"`
	RebateSettled bool            `gorm:"not null;default:false;index" json:"rebate_settled"`
	SettlementID  string          `gorm:"type:varchar(64);default:null" json:"settlement_id,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
