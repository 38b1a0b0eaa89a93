package routes

import (
	"github.com/certforge/cert_portal/handlers"
	"github.com/certforge/cert_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/auth")

	api.Post("/login", handlers.Login)
	api.Get("/me", middleware.Protected(), handlers.Me)

	api.Post("/users", middleware.Protected(), middleware.AdminRequired(), handlers.CreateStaff)
	api.Get("/users", middleware.Protected(), middleware.AdminRequired(), handlers.GetUsers)
	api.Patch("/users/:id/status", middleware.Protected(), middleware.AdminRequired(), handlers.ToggleUserStatus)
	api.Patch("/users/:id/role", middleware.Protected(), middleware.AdminRequired(), handlers.ChangeUserRole)
}
