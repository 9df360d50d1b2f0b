package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pincerlabs/pincer/internal/pkg/database"
	"github.com/pincerlabs/pincer/internal/pkg/env"
	"github.com/pincerlabs/pincer/internal/pkg/ledger"
)

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// newLedgerService builds the settlement service for a request. The payout
// executor runs in simulation mode; a funded treasury integration plugs in
// through the same PayoutExecutor contract.
func newLedgerService() *ledger.Service {
	return ledger.NewService(
		ledger.NewRepository(database.GetDB()),
		ledger.NewSimulatedExecutor(),
		retryPolicyFromEnv(),
	)
}

func retryPolicyFromEnv() ledger.RetryPolicy {
	policy := ledger.DefaultRetryPolicy()
	policy.MaxRetries = env.GetEnvInt("PAYOUT_MAX_RETRIES", policy.MaxRetries)
	return policy
}

func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
