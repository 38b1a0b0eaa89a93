package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobStatusProcessing          = "PROCESSING"
	JobStatusCompleted           = "COMPLETED"
	JobStatusCompletedWithErrors = "COMPLETED_WITH_ERRORS"
	JobStatusFailed              = "FAILED"
)

type BulkJob struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Total     int       `gorm:"not null;default:0" json:"total"`
	Processed int       `gorm:"not null;default:0" json:"processed"`
	Success   int       `gorm:"not null;default:0" json:"success"`
	Failed    int       `gorm:"not null;default:0" json:"failed"`
	Status    string    `gorm:"size:30;not null;default:'PROCESSING'" json:"status"`

	Errors []BulkJobError `gorm:"foreignkey:JobID" json:"errors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j *BulkJob) BeforeCreate(_ *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// BulkJobError is one failed spreadsheet row. RowNumber is the 1-based row in
// the uploaded file including the header row, so data row i carries i+2.
type BulkJobError struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	JobID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	RowNumber int            `gorm:"not null" json:"row_number"`
	RowData   datatypes.JSON `gorm:"type:jsonb" json:"row_data"`
	Error     string         `gorm:"type:text" json:"error"`
	Resolved  bool           `gorm:"default:false" json:"resolved"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *BulkJobError) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
