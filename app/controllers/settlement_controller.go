package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pincerlabs/pincer/app/models"
	"github.com/pincerlabs/pincer/app/repository"
	"github.com/pincerlabs/pincer/internal/pkg/cache"
	"github.com/pincerlabs/pincer/internal/pkg/ledger"
)

const settlementStatusCacheTTL = 5 * time.Minute

func settlementStatusCacheKey(sessionID string) string {
	return "settlement:status:" + sessionID
}

// HandleGetSettlementStatus answers the settlement status query for a
// session. Terminal results are cached; a settlement in flight is always
// read from the store.
func HandleGetSettlementStatus(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	if sessionID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "session_id missing")
	}

	if cached, err := cache.Get(settlementStatusCacheKey(sessionID)); err == nil && cached != "" {
		var status ledger.SettlementStatus
		if json.Unmarshal([]byte(cached), &status) == nil {
			return c.JSON(status)
		}
	}

	svc := newLedgerService()
	status, err := svc.GetStatus(sessionID)
	if err != nil {
		if errors.Is(err, ledger.ErrSessionNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "no settlement for session")
		}
		fiberlog.Errorf("settlement status lookup failed for %s: %v", sessionID, err)
		return jsonError(c, fiber.StatusInternalServerError, "status_lookup_failed", "internal error")
	}

	if isTerminalState(status.State) {
		if payload, mErr := json.Marshal(status); mErr == nil {
			if cErr := cache.Set(settlementStatusCacheKey(sessionID), string(payload), settlementStatusCacheTTL); cErr != nil {
				fiberlog.Warnf("settlement status cache write failed: %v", cErr)
			}
		}
	}

	return c.JSON(status)
}

func isTerminalState(state string) bool {
	s := models.Settlement{State: state}
	return s.IsTerminal()
}

// HandleListSettlements is the operator view over payout history. With
// ?state=failed it surfaces settlements awaiting manual reconciliation.
func HandleListSettlements(c *fiber.Ctx) error {
	limit := clampLimit(c.QueryInt("limit"), 50, 500)
	offset := c.QueryInt("offset")
	if offset < 0 {
		offset = 0
	}

	repo := repository.GetGlobalFactory().GetSettlementRepository()

	var (
		settlements []models.Settlement
		err         error
	)
	if state := c.Query("state"); state != "" {
		settlements, err = repo.ListByState(state, offset, limit)
	} else if campaignID := c.Query("campaign_id"); campaignID != "" {
		settlements, err = repo.ListByCampaign(campaignID, offset, limit)
	} else {
		settlements, err = repo.ListRecent(limit)
	}
	if err != nil {
		fiberlog.Errorf("settlement listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "listing_failed", "internal error")
	}

	return c.JSON(fiber.Map{"settlements": settlements, "count": len(settlements)})
}

// HandleListSessionWebhooks lists every notification received for a session.
func HandleListSessionWebhooks(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	if sessionID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "session_id missing")
	}

	events, err := repository.GetGlobalFactory().GetWebhookEventRepository().ListBySession(sessionID)
	if err != nil {
		fiberlog.Errorf("webhook listing failed for session %s: %v", sessionID, err)
		return jsonError(c, fiber.StatusInternalServerError, "listing_failed", "internal error")
	}

	return c.JSON(fiber.Map{"webhooks": events, "count": len(events)})
}
