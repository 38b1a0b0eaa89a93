package routes

import (
	"github.com/certforge/cert_portal/handlers"
	"github.com/certforge/cert_portal/middleware"
	"github.com/gofiber/fiber/v2"
)

func CertificateRoutes(app *fiber.App) {
	api := app.Group("/api/certificates")

	api.Post("/issue", middleware.Protected(), middleware.StaffRequired(), handlers.IssueSingleCertificate)
	api.Post("/issue-bulk", middleware.Protected(), middleware.StaffRequired(), handlers.IssueBulkCertificates)
	api.Get("/bulk-status/:jobId", middleware.Protected(), middleware.StaffRequired(), handlers.GetBulkJobStatus)
	api.Post("/reissue-failed/:jobId", middleware.Protected(), middleware.StaffRequired(), handlers.ReissueFailedCertificates)
	api.Get("/bulk-failed/:jobId/export", middleware.Protected(), middleware.StaffRequired(), handlers.ExportFailedBulkRows)

	api.Get("/", middleware.Protected(), middleware.StaffRequired(), handlers.GetCertificates)
	api.Patch("/status/:certificateNumber", middleware.Protected(), middleware.AdminRequired(), handlers.ToggleCertificateStatus)

	api.Post("/dispatch-emails", middleware.Protected(), middleware.StaffRequired(), handlers.DispatchCertificateEmails)
	api.Get("/email-stats", middleware.Protected(), middleware.StaffRequired(), handlers.GetEmailStats)
}
