package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutExecutor performs the actual funds transfer for a validated
// settlement instruction. The ledger decides whether and how much to pay;
// the executor owns the chain mechanics.
type PayoutExecutor interface {
	Execute(ctx context.Context, destination string, amount decimal.Decimal, asset, network string) (string, error)
}

// SimulatedExecutor satisfies the executor contract without a funded
// treasury wallet: it returns an immediate synthetic transaction reference.
// Used whenever no treasury key is configured, matching the demo setup.
type SimulatedExecutor struct{}

// NewSimulatedExecutor creates a payout executor in simulation mode.
func NewSimulatedExecutor() *SimulatedExecutor {
	return &SimulatedExecutor{}
}

func (e *SimulatedExecutor) Execute(ctx context.Context, destination string, amount decimal.Decimal, asset, network string) (string, error) {
	if err := ctx.Err(); err != nil {
		// Nothing was submitted; unambiguous failure.
		return "", &PayoutError{Reason: err.Error()}
	}

	var txRef string
	switch {
	case strings.HasPrefix(network, "eip155"):
		txRef = "0x" + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	case strings.HasPrefix(network, "solana"):
		txRef = strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	default:
		return "", &PayoutError{
			Reason:    fmt.Sprintf("unsupported network: %s", network),
			Retryable: false,
		}
	}

	fiberlog.Infof("[SIMULATED] rebate payout %s %s to %s on %s: %s", amount.String(), asset, destination, network, txRef)
	return txRef, nil
}

// RetryPolicy bounds how often a retryable payout failure is re-attempted.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy retries twice with a 200ms doubling backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Backoff: 200 * time.Millisecond}
}

// executeWithRetry runs the executor under the retry policy. Retries stop
// immediately on non-retryable or ambiguous failures; an ambiguous failure
// must not be retried because the transfer may already be in flight.
func executeWithRetry(ctx context.Context, exec PayoutExecutor, policy RetryPolicy, destination string, amount decimal.Decimal, asset, network string) (string, error) {
	backoff := policy.Backoff
	var lastErr error

	for attempt := 0; ; attempt++ {
		txRef, err := exec.Execute(ctx, destination, amount, asset, network)
		if err == nil {
			return txRef, nil
		}
		lastErr = err

		if !IsRetryablePayout(err) || attempt >= policy.MaxRetries {
			return "", lastErr
		}

		fiberlog.Warnf("payout attempt %d failed, retrying in %s: %v", attempt+1, backoff, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", lastErr
		}
		backoff *= 2
	}
}
