package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pincerlabs/pincer/app/controllers"
	"github.com/pincerlabs/pincer/internal/pkg/constants"
	"github.com/pincerlabs/pincer/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Pincer settlement ledger API",
		})
	})

	v1 := api.Group("/v1")

	// Merchant webhook intake. Authenticity comes from the HMAC signature
	// on the body, not from an API key.
	v1.Post(constants.ConversionWebhookRoute, controllers.HandleConversionWebhook)

	// Resource-server surface.
	service := v1.Group("", middleware.APIKeyAuth("SERVICE_API_KEY"))
	service.Post(constants.SessionsRoute, controllers.HandleRegisterSession)
	service.Get(constants.SessionOffersRoute, controllers.HandleGetSessionOffers)
	service.Get(constants.SettlementStatusRoute, controllers.HandleGetSettlementStatus)

	// Operator surface.
	admin := v1.Group("/admin", middleware.APIKeyAuth("ADMIN_API_KEY"))
	admin.Post(constants.CampaignsRoute, controllers.HandleCreateCampaign)
	admin.Get(constants.CampaignsRoute, controllers.HandleListCampaigns)
	admin.Get(constants.CampaignRoute, controllers.HandleGetCampaign)
	admin.Patch(constants.CampaignRoute, controllers.HandleUpdateCampaign)
	admin.Get(constants.SettlementsRoute, controllers.HandleListSettlements)
	admin.Get(constants.SessionWebhooksRoute, controllers.HandleListSessionWebhooks)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
