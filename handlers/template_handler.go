package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/storage"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func readFormFile(c *fiber.Ctx, field string) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	var file multipart.File
	file, err = fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func CreateTemplate(c *fiber.Ctx) error {
	templateName := c.FormValue("template_name")
	className := c.FormValue("class_name")
	instructorName := c.FormValue("instructor_name")

	if templateName == "" || className == "" || instructorName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing required fields"})
	}

	var existing models.Template
	if err := database.DB.Where("class_name = ?", className).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Template already exists for this class"})
	}

	templateBytes, err := readFormFile(c, "template")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Files missing"})
	}
	signatureBytes, err := readFormFile(c, "signature")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Files missing"})
	}

	templateKey := fmt.Sprintf("templates/%s/template.html", className)
	signatureKey := fmt.Sprintf("templates/%s/signature.png", className)

	if err := storage.Client.Put(c.Context(), templateKey, templateBytes, "text/html"); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to store template file"})
	}
	if err := storage.Client.Put(c.Context(), signatureKey, signatureBytes, "image/png"); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to store signature file"})
	}

	template := models.Template{
		TemplateName:   templateName,
		ClassName:      className,
		TemplateKey:    templateKey,
		SignatureKey:   signatureKey,
		InstructorName: instructorName,
	}
	if err := database.DB.Create(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Class name must be unique"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Template created",
		"template": template,
	})
}

func GetTemplates(c *fiber.Ctx) error {
	var templates []models.Template
	if err := database.DB.Order("created_at DESC").Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	return c.JSON(templates)
}

// GetActiveTemplates feeds the staff issue-form dropdown.
func GetActiveTemplates(c *fiber.Ctx) error {
	var templates []models.Template
	err := database.DB.
		Select("id", "template_name", "class_name", "instructor_name").
		Where("active = ?", true).
		Find(&templates).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	return c.JSON(fiber.Map{"templates": templates})
}

// UpdateTemplate edits any subset of fields and optionally replaces the
// stored files. Templates are never hard-deleted.
func UpdateTemplate(c *fiber.Ctx) error {
	var template models.Template
	err := database.DB.First(&template, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Template not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}

	if templateBytes, err := readFormFile(c, "template"); err == nil {
		key := fmt.Sprintf("templates/%s/template.html", template.ClassName)
		if err := storage.Client.Put(c.Context(), key, templateBytes, "text/html"); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to store template file"})
		}
		template.TemplateKey = key
	}
	if signatureBytes, err := readFormFile(c, "signature"); err == nil {
		key := fmt.Sprintf("templates/%s/signature.png", template.ClassName)
		if err := storage.Client.Put(c.Context(), key, signatureBytes, "image/png"); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to store signature file"})
		}
		template.SignatureKey = key
	}

	if v := c.FormValue("template_name"); v != "" {
		template.TemplateName = v
	}
	if v := c.FormValue("instructor_name"); v != "" {
		template.InstructorName = v
	}

	if err := database.DB.Save(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Class name must be unique"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}

	return c.JSON(template)
}

// ToggleTemplateActive flips the active flag; deactivation is the only way a
// template leaves the issuance path.
func ToggleTemplateActive(c *fiber.Ctx) error {
	var template models.Template
	err := database.DB.First(&template, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Template not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}

	template.Active = !template.Active
	if err := database.DB.Model(&template).Update("active", template.Active).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}

	message := "Template deactivated"
	if template.Active {
		message = "Template activated"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"active":  template.Active,
	})
}
