package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pincerlabs/pincer/app/models"
	"github.com/pincerlabs/pincer/internal/pkg/env"
	"github.com/pincerlabs/pincer/internal/pkg/ledger"
	"github.com/pincerlabs/pincer/internal/pkg/metrics/counter"
)

// HandleConversionWebhook is the inbound conversion notification endpoint.
// Authenticity is checked on the raw body before anything touches the
// ledger; admitted webhooks run the settlement state machine and the
// resulting decision is returned as a structured outcome.
func HandleConversionWebhook(c *fiber.Ctx) error {
	rawBody := c.Body()
	signature := firstHeaderValue(c, "X-Webhook-Signature", "X-Signature")
	secret := env.GetEnv("WEBHOOK_SECRET", "")
	if secret == "" {
		fiberlog.Error("WEBHOOK_SECRET is not configured")
		return jsonError(c, fiber.StatusInternalServerError, "misconfigured", "webhook secret not configured")
	}

	if !ledger.VerifyWebhookSignature(rawBody, signature, secret) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
	}

	var in ledger.ConversionWebhook
	if err := json.Unmarshal(rawBody, &in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "could not parse webhook body")
	}

	maxAge := env.GetEnvDuration("WEBHOOK_MAX_AGE", 5*time.Minute)
	if !in.Timestamp.IsZero() {
		if err := ledger.CheckFreshness(in.Timestamp, time.Now(), maxAge); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "stale_notification", "webhook timestamp outside tolerance")
		}
	}

	// The settlement transition must reach a terminal state even if the
	// caller disconnects, so it runs on its own context rather than the
	// request's.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := newLedgerService()
	decision, err := svc.ProcessWebhook(ctx, in)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
		}
		fiberlog.Errorf("webhook %s processing failed: %v", in.WebhookID, err)
		return jsonError(c, fiber.StatusInternalServerError, "webhook_processing_failed", "internal error")
	}

	if decision.Status == ledger.DecisionAccepted && decision.CampaignID != "" {
		if cErr := counter.AddConversion(decision.CampaignID); cErr != nil {
			fiberlog.Warnf("conversion counter increment failed: %v", cErr)
		}
	}

	return c.Status(httpStatusForDecision(decision)).JSON(decision)
}

func httpStatusForDecision(d *ledger.Decision) int {
	switch d.Status {
	case ledger.DecisionAccepted:
		return fiber.StatusOK
	case ledger.DecisionDuplicate, ledger.DecisionProcessing:
		return fiber.StatusOK
	case ledger.DecisionRejected:
		switch d.Reason {
		case models.FailureReasonSessionNotFound, models.FailureReasonCampaignMissing:
			return fiber.StatusNotFound
		default:
			// already settled, inactive campaign, exhausted budget
			return fiber.StatusConflict
		}
	case ledger.DecisionFailed:
		return fiber.StatusOK
	default:
		return fiber.StatusOK
	}
}
