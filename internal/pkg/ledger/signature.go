package ledger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// VerifyWebhookSignature checks the HMAC-SHA256 signature a merchant sends
// with a conversion webhook. The signature header carries the hex digest of
// HMAC-SHA256(secret, raw body). Comparison is constant-time.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// CheckFreshness bounds replay exposure before idempotency checks run.
// Notifications older than maxAge (or dated in the future by more than
// maxAge, to tolerate clock skew symmetrically) are rejected. A zero maxAge
// disables the check.
func CheckFreshness(sentAt, now time.Time, maxAge time.Duration) error {
	if maxAge <= 0 {
		return nil
	}
	drift := now.Sub(sentAt)
	if drift > maxAge || drift < -maxAge {
		return ErrStaleNotification
	}
	return nil
}
