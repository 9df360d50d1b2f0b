package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement lifecycle states. Reserved and Paying are transient; Settled,
// Failed and Rejected are terminal.
const (
	SettlementStateReserved = "reserved"
	SettlementStatePaying   = "paying"
	SettlementStateSettled  = "settled"
	SettlementStateFailed   = "failed"
	SettlementStateRejected = "rejected"
)

// Settlement failure reasons recorded on terminal non-success states.
const (
	FailureReasonAlreadySettled  = "session_already_settled"
	FailureReasonSessionNotFound = "session_not_found"
	FailureReasonCampaignMissing = "campaign_not_found"
	FailureReasonCampaignPaused  = "campaign_inactive"
	FailureReasonBudgetExhausted = "budget_exhausted"
	FailureReasonPayoutFailed    = "payout_failed"
	FailureReasonAmbiguousPayout = "ambiguous_payout"
)

// Settlement is the authoritative record of one rebate payout attempt.
// The unique index on SessionID enforces the 1:1 session/settlement
// relationship at the store level; application logic alone is not trusted
// with double-spend prevention.
type Settlement struct {
	SettlementID  string          `gorm:"primaryKey;type:varchar(64)" json:"settlement_id"`
	SessionID     string          `gorm:"type:varchar(100);not null;uniqueIndex:ux_settlements_session" json:"session_id"`
	WebhookID     string          `gorm:"type:varchar(100);not null;index" json:"webhook_id"`
	CampaignID    string          `gorm:"type:varchar(64);not null;index" json:"campaign_id"`
	UserAddress   string          `gorm:"type:varchar(128);not null" json:"user_address"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount"`
	Asset         string          `gorm:"type:varchar(20);not null" json:"asset"`
	Network       string          `gorm:"type:varchar(100);not null" json:"network"`
	State         string          `gorm:"type:varchar(20);not null;index" json:"state"`
	TxRef         string          `gorm:"type:varchar(128);default:null" json:"tx_ref,omitempty"`
	FailureReason string          `gorm:"type:varchar(64);default:null" json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the settlement reached a final state.
func (s *Settlement) IsTerminal() bool {
	switch s.State {
	case SettlementStateSettled, SettlementStateFailed, SettlementStateRejected:
		return true
	default:
		return false
	}
}
