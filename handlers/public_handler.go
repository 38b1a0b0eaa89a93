package handlers

import (
	"errors"

	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/services"
	"github.com/certforge/cert_portal/utils"
	"github.com/gofiber/fiber/v2"
)

// VerifyCertificate is the public read path behind the QR code. Unknown
// numbers get a neutral response, nothing about internals leaks.
func VerifyCertificate(c *fiber.Ctx) error {
	cert, err := services.GetCertificateByNumber(c.Params("certificateNumber"))
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"valid":   false,
				"message": "Certificate not found or invalid",
			})
		}
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"valid":           cert.Status == models.CertStatusIssued,
		"revoked":         cert.Status == models.CertStatusRevoked,
		"status":          cert.Status,
		"student_name":    cert.StudentName(),
		"class_name":      cert.ClassName,
		"training_date":   utils.FormatDate(cert.TrainingDate),
		"issue_date":      utils.FormatDate(cert.IssueDate),
		"instructor_name": cert.InstructorName,
	})
}

// DownloadCertificate redirects to a short-lived signed URL. Revoked
// certificates are rejected outright, even though the stored PDF still
// exists.
func DownloadCertificate(c *fiber.Ctx) error {
	url, err := services.DownloadURL(c.Context(), c.Params("certificateNumber"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Redirect(url, fiber.StatusFound)
}
