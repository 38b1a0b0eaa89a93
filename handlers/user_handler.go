package handlers

import (
	"errors"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func findUserByParam(c *fiber.Ctx) (*models.User, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := database.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
	return c.JSON(fiber.Map{"users": users})
}

// ToggleUserStatus activates or deactivates an account. Deactivated accounts
// fail the login lookup; their history stays intact. The seeded super admin
// can never be locked out.
func ToggleUserStatus(c *fiber.Ctx) error {
	user, err := findUserByParam(c)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	if user.IsSuperAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Super admin account cannot be deactivated"})
	}

	user.IsActive = !user.IsActive
	if err := database.DB.Model(user).Update("is_active", user.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	message := "User deactivated"
	if user.IsActive {
		message = "User activated"
	}
	return c.JSON(fiber.Map{
		"message":   message,
		"is_active": user.IsActive,
	})
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN STAFF"`
}

func ChangeUserRole(c *fiber.Ctx) error {
	var req ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Role must be ADMIN or STAFF"})
	}

	user, err := findUserByParam(c)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	if user.IsSuperAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Super admin role cannot be changed"})
	}

	user.Role = req.Role
	if err := database.DB.Model(user).Update("role", user.Role).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}

	return c.JSON(fiber.Map{
		"message": "User role updated",
		"user": fiber.Map{
			"id":        user.ID,
			"full_name": user.FullName,
			"email":     user.Email,
			"role":      user.Role,
		},
	})
}
