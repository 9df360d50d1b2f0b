package ledger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"webhook_id":"wh_1","session_id":"sess_1"}`)
	secret := "top-secret"

	validSig := signPayload(payload, secret)
	if !VerifyWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}

	// Uppercase hex must also validate.
	if !VerifyWebhookSignature(payload, strings.ToUpper(validSig), secret) {
		t.Fatalf("expected uppercase signature to validate")
	}

	// Surrounding whitespace from header parsing is tolerated.
	if !VerifyWebhookSignature(payload, "  "+validSig+"\n", secret) {
		t.Fatalf("expected trimmed signature to validate")
	}

	if VerifyWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyWebhookSignature(payload, "not-hex-at-all", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
	if VerifyWebhookSignature(payload, validSig, "wrong-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifyWebhookSignature(payload, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifyWebhookSignature(payload, validSig, "") {
		t.Fatalf("expected empty secret to fail")
	}
}

func TestVerifyWebhookSignature_TamperedPayload(t *testing.T) {
	payload := []byte(`{"purchase_amount":"100.00"}`)
	secret := "top-secret"
	sig := signPayload(payload, secret)

	tampered := []byte(`{"purchase_amount":"999.00"}`)
	if VerifyWebhookSignature(tampered, sig, secret) {
		t.Fatalf("expected signature over a different body to fail")
	}
}

func TestCheckFreshness(t *testing.T) {
	now := time.Now()
	maxAge := 5 * time.Minute

	if err := CheckFreshness(now.Add(-time.Minute), now, maxAge); err != nil {
		t.Fatalf("expected recent timestamp to pass, got %v", err)
	}
	if err := CheckFreshness(now.Add(-10*time.Minute), now, maxAge); err != ErrStaleNotification {
		t.Fatalf("expected stale timestamp to fail, got %v", err)
	}
	if err := CheckFreshness(now.Add(10*time.Minute), now, maxAge); err != ErrStaleNotification {
		t.Fatalf("expected far-future timestamp to fail, got %v", err)
	}
	// Future skew inside the window is tolerated.
	if err := CheckFreshness(now.Add(time.Minute), now, maxAge); err != nil {
		t.Fatalf("expected small clock skew to pass, got %v", err)
	}
	// Zero maxAge disables the check entirely.
	if err := CheckFreshness(now.Add(-24*time.Hour), now, 0); err != nil {
		t.Fatalf("expected disabled check to pass, got %v", err)
	}
}
