package routes

import (
	"github.com/certforge/cert_portal/handlers"
	"github.com/certforge/cert_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func TemplateRoutes(app *fiber.App) {
	api := app.Group("/api/templates", middleware.Protected())

	api.Post("/", middleware.AdminRequired(), handlers.CreateTemplate)
	api.Get("/", middleware.AdminRequired(), handlers.GetTemplates)
	api.Get("/active", middleware.StaffRequired(), handlers.GetActiveTemplates)
	api.Patch("/:id", middleware.AdminRequired(), handlers.UpdateTemplate)
	api.Patch("/:id/deactivate", middleware.AdminRequired(), handlers.ToggleTemplateActive)
}
