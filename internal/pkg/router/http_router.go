package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pincerlabs/pincer/internal/pkg/constants"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok", "service": "pincer"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
