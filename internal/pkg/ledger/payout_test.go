package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedExecutor(t *testing.T) {
	exec := NewSimulatedExecutor()
	amount := decimal.RequireFromString("0.50")

	t.Run("eip155 networks get an 0x tx ref", func(t *testing.T) {
		txRef, err := exec.Execute(context.Background(), "0xdest", amount, "USDC", "eip155:8453")
		require.NoError(t, err)
		assert.True(t, len(txRef) > 2 && txRef[:2] == "0x")
	})

	t.Run("solana networks get a base signature", func(t *testing.T) {
		txRef, err := exec.Execute(context.Background(), "dest", amount, "USDC", "solana:mainnet")
		require.NoError(t, err)
		assert.NotEmpty(t, txRef)
	})

	t.Run("unsupported network fails without retry", func(t *testing.T) {
		_, err := exec.Execute(context.Background(), "dest", amount, "USDC", "bitcoin")
		require.Error(t, err)
		assert.False(t, IsRetryablePayout(err))
		assert.False(t, IsAmbiguousPayout(err))
	})

	t.Run("cancelled context fails unambiguously", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := exec.Execute(ctx, "0xdest", amount, "USDC", "eip155:8453")
		require.Error(t, err)
		assert.False(t, IsAmbiguousPayout(err))
	})
}

func TestExecuteWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	exec := &scriptedExecutor{failures: 2}
	policy := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}

	txRef, err := executeWithRetry(context.Background(), exec, policy, "0xdest", decimal.RequireFromString("0.50"), "USDC", "eip155:8453")
	require.NoError(t, err)
	assert.NotEmpty(t, txRef)
	assert.Equal(t, 3, exec.callCount())
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	exec := &scriptedExecutor{err: &PayoutError{Reason: "always down", Retryable: true}}
	policy := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}

	_, err := executeWithRetry(context.Background(), exec, policy, "0xdest", decimal.RequireFromString("0.50"), "USDC", "eip155:8453")
	require.Error(t, err)
	// Initial attempt plus MaxRetries.
	assert.Equal(t, 3, exec.callCount())
}

func TestExecuteWithRetry_StopsOnNonRetryable(t *testing.T) {
	exec := &scriptedExecutor{err: &PayoutError{Reason: "bad destination", Retryable: false}}
	policy := RetryPolicy{MaxRetries: 5, Backoff: time.Millisecond}

	_, err := executeWithRetry(context.Background(), exec, policy, "0xdest", decimal.RequireFromString("0.50"), "USDC", "eip155:8453")
	require.Error(t, err)
	assert.Equal(t, 1, exec.callCount())
}

func TestExecuteWithRetry_NeverRetriesAmbiguous(t *testing.T) {
	// An ambiguous failure means the transfer may already be in flight;
	// retrying could double-pay.
	exec := &scriptedExecutor{err: &PayoutError{Reason: "submit timeout", Retryable: true, Ambiguous: true}}
	policy := RetryPolicy{MaxRetries: 5, Backoff: time.Millisecond}

	_, err := executeWithRetry(context.Background(), exec, policy, "0xdest", decimal.RequireFromString("0.50"), "USDC", "eip155:8453")
	require.Error(t, err)
	assert.True(t, IsAmbiguousPayout(err))
	assert.Equal(t, 1, exec.callCount())
}

func TestPayoutErrorPredicates(t *testing.T) {
	assert.False(t, IsRetryablePayout(nil))
	assert.False(t, IsAmbiguousPayout(nil))
	assert.False(t, IsRetryablePayout(context.Canceled))

	retryable := &PayoutError{Reason: "x", Retryable: true}
	assert.True(t, IsRetryablePayout(retryable))
	assert.False(t, IsAmbiguousPayout(retryable))

	// Ambiguous overrides retryable.
	ambiguous := &PayoutError{Reason: "x", Retryable: true, Ambiguous: true}
	assert.False(t, IsRetryablePayout(ambiguous))
	assert.True(t, IsAmbiguousPayout(ambiguous))
}
