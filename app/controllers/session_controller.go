package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pincerlabs/pincer/internal/pkg/ledger"
)

// HandleRegisterSession records a verified payment session. The payment
// verification collaborator calls this once its 402 challenge is satisfied;
// re-registering the same session_id is answered idempotently.
func HandleRegisterSession(c *fiber.Ctx) error {
	var in ledger.SessionInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "could not parse session body")
	}

	svc := newLedgerService()
	session, created, err := svc.RegisterSession(in)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
		}
		fiberlog.Errorf("session registration failed for %s: %v", in.SessionID, err)
		return jsonError(c, fiber.StatusInternalServerError, "session_create_failed", "internal error")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"session": session, "created": created})
}

// HandleGetSessionOffers returns the sponsored offers available to a
// verified session.
func HandleGetSessionOffers(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	if sessionID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "session_id missing")
	}

	svc := newLedgerService()
	offers, err := svc.GenerateOffers(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrSessionNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "session not found")
		case errors.Is(err, ledger.ErrSessionAlreadySettled):
			return jsonError(c, fiber.StatusConflict, "session_already_settled", "rebate already settled for session")
		default:
			fiberlog.Errorf("offer generation failed for %s: %v", sessionID, err)
			return jsonError(c, fiber.StatusInternalServerError, "offer_generation_failed", "internal error")
		}
	}

	return c.JSON(fiber.Map{"session_id": sessionID, "offers": offers})
}
