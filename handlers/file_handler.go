package handlers

import (
	"strings"
	"time"

	"github.com/certforge/cert_portal/middleware"
	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/storage"
	"github.com/gofiber/fiber/v2"
)

const viewURLTTL = 5 * time.Minute

// ViewFile mints a short-lived signed URL for a stored object. Template
// objects are admin-only; the URL is returned transiently and never stored.
func ViewFile(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "File key is required"})
	}

	if strings.HasPrefix(key, "templates/") && middleware.RoleFromCtx(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Not authorized to view templates"})
	}

	url, err := storage.Client.SignedURL(c.Context(), key, viewURLTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to generate file URL"})
	}

	return c.JSON(fiber.Map{"url": url})
}
