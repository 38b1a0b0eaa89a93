package middleware

import (
	config "github.com/certforge/cert_portal/configs"
	"github.com/certforge/cert_portal/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.Config("JWT_SECRET")),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func claimsFromCtx(c *fiber.Ctx) jwt.MapClaims {
	token := c.Locals("user").(*jwt.Token)
	return token.Claims.(jwt.MapClaims)
}

// RoleFromCtx exposes the authenticated principal's role to handlers.
func RoleFromCtx(c *fiber.Ctx) string {
	role, _ := claimsFromCtx(c)["role"].(string)
	return role
}

// UserIDFromCtx exposes the authenticated principal's user ID to handlers.
func UserIDFromCtx(c *fiber.Ctx) string {
	sub, _ := claimsFromCtx(c)["sub"].(string)
	return sub
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := claimsFromCtx(c)["role"].(string)

		if role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}

func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := claimsFromCtx(c)["role"].(string)

		if role != models.RoleAdmin && role != models.RoleStaff {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Staff access required",
			})
		}
		return c.Next()
	}
}
