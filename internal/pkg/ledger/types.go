package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision statuses returned to the merchant integration. These distinguish
// "your webhook was malformed" from "the rebate could not be paid" from
// "this was already paid".
const (
	DecisionAccepted   = "accepted"
	DecisionDuplicate  = "duplicate"
	DecisionProcessing = "processing"
	DecisionRejected   = "rejected"
	DecisionFailed     = "failed"
)

// ConversionWebhook is the normalized input for webhook processing, parsed
// from the merchant's signed JSON body.
type ConversionWebhook struct {
	WebhookID      string          `json:"webhook_id" validate:"required,max=100"`
	SessionID      string          `json:"session_id" validate:"required,max=100"`
	UserAddress    string          `json:"user_address" validate:"required,max=128"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	PurchaseAsset  string          `json:"purchase_asset"`
	MerchantID     string          `json:"merchant_id"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Decision is the single result type for webhook processing. It is cached
// verbatim on the webhook row so every redelivery of the same webhook_id
// returns an identical answer.
type Decision struct {
	Status       string          `json:"status"`
	WebhookID    string          `json:"webhook_id"`
	SessionID    string          `json:"session_id,omitempty"`
	CampaignID   string          `json:"campaign_id,omitempty"`
	SettlementID string          `json:"settlement_id,omitempty"`
	State        string          `json:"settlement_state,omitempty"`
	TxRef        string          `json:"tx_ref,omitempty"`
	Amount       decimal.Decimal `json:"rebate_amount,omitempty"`
	Asset        string          `json:"rebate_asset,omitempty"`
	Reason       string          `json:"reason,omitempty"`
}

// SessionInput registers a verified payment session with the ledger. The
// external payment verifier calls this after a 402 challenge is satisfied.
type SessionInput struct {
	SessionID    string          `json:"session_id" validate:"required,max=100"`
	CampaignID   string          `json:"campaign_id" validate:"max=64"`
	UserAddress  string          `json:"user_address" validate:"required,max=128"`
	Network      string          `json:"network" validate:"required,max=100"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	PaymentAsset string          `json:"payment_asset"`
	PaymentHash  string          `json:"payment_hash"`
}

// SponsoredOffer is one rebate offer attached to a verified session.
type SponsoredOffer struct {
	OfferID      string          `json:"offer_id"`
	CampaignID   string          `json:"sponsor_id"`
	MerchantName string          `json:"merchant_name"`
	OfferText    string          `json:"offer_text"`
	RebateAmount decimal.Decimal `json:"rebate_amount"`
	RebateAsset  string          `json:"rebate_asset"`
	Network      string          `json:"rebate_network"`
	SessionID    string          `json:"session_id"`
}

// SettlementStatus is the read-model answer for the status query endpoint.
type SettlementStatus struct {
	SessionID     string          `json:"session_id"`
	SettlementID  string          `json:"settlement_id"`
	State         string          `json:"state"`
	Amount        decimal.Decimal `json:"amount"`
	Asset         string          `json:"asset"`
	TxRef         string          `json:"tx_ref,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
