package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/certforge/cert_portal/services"
	"github.com/gofiber/fiber/v2"
)

type IssueSingleRequest struct {
	FirstName    string `json:"first_name" validate:"required"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name" validate:"required"`
	ClassName    string `json:"class_name" validate:"required"`
	TrainingDate string `json:"training_date" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
}

// serviceError maps domain sentinels onto HTTP responses; anything unknown is
// a 500 with a neutral message.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrDuplicateCertificate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrNoActiveTemplate),
		errors.Is(err, services.ErrCertificateNotFound),
		errors.Is(err, services.ErrJobNotFound),
		errors.Is(err, services.ErrTemplateNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrCertificateRevoked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, services.ErrNoFailedRows):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
}

func IssueSingleCertificate(c *fiber.Ctx) error {
	var req IssueSingleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing required fields"})
	}

	cert, err := services.IssueCertificate(c.Context(), services.IssueRequest{
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		ClassName:    req.ClassName,
		TrainingDate: req.TrainingDate,
		Email:        req.Email,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Certificate issued successfully",
		"certificate": cert,
	})
}

// IssueBulkCertificates accepts the spreadsheet, creates the job and returns
// immediately; callers poll GetBulkJobStatus until a terminal status.
func IssueBulkCertificates(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Spreadsheet file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot open uploaded file"})
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot read uploaded file"})
	}

	job, err := services.SubmitBulkJob(fileBytes)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Bulk issuance started",
		"job_id":  job.ID,
		"total":   job.Total,
	})
}

func GetBulkJobStatus(c *fiber.Ctx) error {
	job, err := services.GetBulkJobStatus(c.Params("jobId"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(job)
}

func ReissueFailedCertificates(c *fiber.Ctx) error {
	reissued, stillFailed, err := services.ReissueFailedRows(c.Params("jobId"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"reissued":     reissued,
		"still_failed": stillFailed,
	})
}

func ExportFailedBulkRows(c *fiber.Ctx) error {
	data, err := services.ExportFailedRows(c.Params("jobId"))
	if err != nil {
		return serviceError(c, err)
	}

	filename := fmt.Sprintf("failed-rows-%s.xlsx", c.Params("jobId"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(data)
}

func GetCertificates(c *fiber.Ctx) error {
	certs, total, err := services.ListCertificates(
		c.Query("search"),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 20),
	)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"certificates": certs,
		"total":        total,
	})
}

type ToggleStatusRequest struct {
	Notify       bool   `json:"notify"`
	AdminMessage string `json:"admin_message"`
}

func ToggleCertificateStatus(c *fiber.Ctx) error {
	var req ToggleStatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot parse JSON"})
		}
	}

	cert, err := services.ToggleCertificateStatus(c.Params("certificateNumber"), req.Notify, req.AdminMessage)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Certificate status updated",
		"certificate": cert,
	})
}

func DispatchCertificateEmails(c *fiber.Ctx) error {
	dispatched, err := services.DispatchBatch()
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":    "Email dispatch started",
		"dispatched": dispatched,
	})
}

func GetEmailStats(c *fiber.Ctx) error {
	stats, err := services.GetEmailStats()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stats)
}
