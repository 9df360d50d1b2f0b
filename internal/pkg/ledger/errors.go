package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the settlement path. Authenticity failures are raised
// before any ledger row is touched; the rest map to structured rejection
// outcomes recorded on the webhook and settlement rows.
var (
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrStaleNotification     = errors.New("webhook timestamp outside freshness window")
	ErrSessionNotFound       = errors.New("payment session not found")
	ErrSessionAlreadySettled = errors.New("rebate already settled for session")
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrCampaignInactive      = errors.New("campaign inactive")
	ErrBudgetExhausted       = errors.New("campaign budget exhausted")
)

// PayoutError reports a payout executor failure. Retryable failures are
// eligible for the bounded retry policy. Ambiguous failures (timeouts,
// unknown submission state) must never trigger a budget release: funds may
// already have moved, so the settlement is parked for manual reconciliation.
type PayoutError struct {
	Reason    string
	Retryable bool
	Ambiguous bool
}

func (e *PayoutError) Error() string {
	return fmt.Sprintf("payout failed: %s (retryable=%t, ambiguous=%t)", e.Reason, e.Retryable, e.Ambiguous)
}

// IsAmbiguousPayout reports whether err carries an ambiguous payout outcome.
func IsAmbiguousPayout(err error) bool {
	var pe *PayoutError
	return errors.As(err, &pe) && pe.Ambiguous
}

// IsRetryablePayout reports whether err is a payout failure worth retrying.
func IsRetryablePayout(err error) bool {
	var pe *PayoutError
	return errors.As(err, &pe) && pe.Retryable && !pe.Ambiguous
}
