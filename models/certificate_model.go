package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CertStatusIssued  = "ISSUED"
	CertStatusRevoked = "REVOKED"

	EmailStatusPending    = "PENDING"
	EmailStatusProcessing = "PROCESSING"
	EmailStatusSent       = "SENT"
	EmailStatusFailed     = "FAILED"
)

type Certificate struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CertificateNumber string    `gorm:"size:32;not null;unique" json:"certificate_number"`

	FirstName  string  `gorm:"size:100;not null;uniqueIndex:idx_certificates_identity" json:"first_name"`
	MiddleName *string `gorm:"size:100" json:"middle_name"`
	LastName   string  `gorm:"size:100;not null;uniqueIndex:idx_certificates_identity" json:"last_name"`
	ClassName  string  `gorm:"size:255;not null;uniqueIndex:idx_certificates_identity" json:"class_name"`

	TrainingDate   time.Time `gorm:"not null" json:"training_date"`
	IssueDate      time.Time `gorm:"not null" json:"issue_date"`
	InstructorName string    `gorm:"size:255;not null" json:"instructor_name"`

	TemplateID uuid.UUID `gorm:"type:uuid;not null" json:"template_id"`
	PdfKey     string    `gorm:"size:512;not null" json:"pdf_key"`

	Status string `gorm:"size:20;not null;default:'ISSUED'" json:"status"`

	Email         *string    `gorm:"size:255" json:"email"`
	EmailStatus   string     `gorm:"size:20;not null;default:'PENDING';index" json:"email_status"`
	EmailError    *string    `gorm:"type:text" json:"email_error"`
	EmailSentAt   *time.Time `json:"email_sent_at"`
	EmailAttempts int        `gorm:"default:0" json:"email_attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Certificate) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// StudentName joins the name parts, skipping an absent middle name.
func (c *Certificate) StudentName() string {
	if c.MiddleName != nil && *c.MiddleName != "" {
		return c.FirstName + " " + *c.MiddleName + " " + c.LastName
	}
	return c.FirstName + " " + c.LastName
}
