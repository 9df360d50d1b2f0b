package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/pincerlabs/pincer/app/models"
	"github.com/pincerlabs/pincer/app/repository"
	"gorm.io/gorm"
)

// HandleCreateCampaign provisions a sponsor campaign. Remaining budget
// starts at the total unless seeded lower (partial budgets are allowed for
// migrated campaigns).
func HandleCreateCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := c.BodyParser(&campaign); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "could not parse campaign body")
	}

	if campaign.RemainingBudget.IsZero() {
		campaign.RemainingBudget = campaign.TotalBudget
	}
	campaign.Active = true
	campaign.ConversionCount = 0

	repo := repository.GetGlobalFactory().GetCampaignRepository()
	if err := repo.Create(&campaign); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) || errors.Is(err, models.ErrInvalidAmount) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return jsonError(c, fiber.StatusConflict, "campaign_exists", "campaign id already provisioned")
		}
		fiberlog.Errorf("campaign create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "campaign_create_failed", "internal error")
	}

	return c.Status(fiber.StatusCreated).JSON(campaign)
}

// HandleListCampaigns lists campaigns for operators.
func HandleListCampaigns(c *fiber.Ctx) error {
	limit := clampLimit(c.QueryInt("limit"), 50, 500)
	offset := c.QueryInt("offset")
	if offset < 0 {
		offset = 0
	}

	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaigns, err := repo.List(offset, limit)
	if err != nil {
		fiberlog.Errorf("campaign listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "listing_failed", "internal error")
	}

	return c.JSON(fiber.Map{"campaigns": campaigns, "count": len(campaigns)})
}

// HandleGetCampaign returns one campaign by id.
func HandleGetCampaign(c *fiber.Ctx) error {
	id := c.Params("id")
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "campaign not found")
		}
		fiberlog.Errorf("campaign lookup failed for %s: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "lookup_failed", "internal error")
	}
	return c.JSON(campaign)
}

// HandleUpdateCampaign edits display fields and the active flag. Campaigns
// are never deleted; deactivation is the retirement path. Budget columns
// cannot be edited here.
func HandleUpdateCampaign(c *fiber.Ctx) error {
	id := c.Params("id")
	repo := repository.GetGlobalFactory().GetCampaignRepository()

	campaign, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "campaign not found")
		}
		fiberlog.Errorf("campaign lookup failed for %s: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "lookup_failed", "internal error")
	}

	var patch struct {
		MerchantName *string `json:"merchant_name"`
		OfferText    *string `json:"offer_text"`
		Active       *bool   `json:"active"`
	}
	if err := c.BodyParser(&patch); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "could not parse campaign patch")
	}

	if patch.MerchantName != nil {
		campaign.MerchantName = *patch.MerchantName
	}
	if patch.OfferText != nil {
		campaign.OfferText = *patch.OfferText
	}
	if patch.Active != nil {
		campaign.Active = *patch.Active
	}

	if err := repo.Update(campaign); err != nil {
		fiberlog.Errorf("campaign update failed for %s: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "update_failed", "internal error")
	}

	return c.JSON(campaign)
}
