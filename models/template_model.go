package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Template struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TemplateName string    `gorm:"size:255;not null" json:"template_name"`
	ClassName    string    `gorm:"size:255;not null;unique" json:"class_name"`

	// HTML template object in the store, rendered at issue time.
	TemplateKey  string `gorm:"size:512;not null" json:"template_key"`
	SignatureKey string `gorm:"size:512;not null" json:"signature_key"`

	InstructorName string `gorm:"size:255;not null" json:"instructor_name"`
	Active         bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Template) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
