package routes

import (
	"github.com/certforge/cert_portal/handlers"
	"github.com/certforge/cert_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func FileRoutes(app *fiber.App) {
	api := app.Group("/api/files", middleware.Protected(), middleware.StaffRequired())

	api.Get("/view", handlers.ViewFile)
}
