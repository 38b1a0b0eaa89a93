package routes

import (
	"github.com/certforge/cert_portal/handlers"
	"github.com/gofiber/fiber/v2"
)

// PublicRoutes are the unauthenticated read paths behind the QR code.
func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/certificates")

	api.Get("/verify/:certificateNumber", handlers.VerifyCertificate)
	api.Get("/download/:certificateNumber", handlers.DownloadCertificate)
}
