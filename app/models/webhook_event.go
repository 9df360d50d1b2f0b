package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Webhook outcome values. A row is created in pending state by the atomic
// insert-if-absent admission check and finalized exactly once.
const (
	WebhookOutcomePending  = "pending"
	WebhookOutcomeAccepted = "accepted"
	WebhookOutcomeRejected = "rejected"
	WebhookOutcomeFailed   = "failed"
)

// WebhookEvent stores one inbound conversion notification with deduplication
// metadata. The primary key on WebhookID is the idempotency guarantee:
// redeliveries hit the stored row and are answered from ResultJSON without
// reprocessing.
type WebhookEvent struct {
	WebhookID      string          `gorm:"primaryKey;type:varchar(100)" json:"webhook_id"`
	SessionID      string          `gorm:"type:varchar(100);not null;index" json:"session_id"`
	UserAddress    string          `gorm:"type:varchar(128);not null" json:"user_address"`
	PurchaseAmount decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"purchase_amount"`
	PurchaseAsset  string          `gorm:"type:varchar(20);not null;default:'USD'" json:"purchase_asset"`
	MerchantID     string          `gorm:"type:varchar(64);default:''" json:"merchant_id"`
	Outcome        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"outcome"`
	ResultJSON     string          `gorm:"type:longtext" json:"result_json"`
	ErrorMessage   string          `gorm:"type:text" json:"error_message"`
	ReceivedAt     time.Time       `gorm:"autoCreateTime;index" json:"received_at"`
	ProcessedAt    *time.Time      `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
}
