package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/utils"
	"github.com/certforge/cert_portal/websocket"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// exportColumns is the header order for failed-row exports and the set of
// recognized spreadsheet columns. Column order in uploads is irrelevant and
// unknown columns are ignored.
var exportColumns = []string{"first_name", "middle_name", "last_name", "class_name", "training_date", "email"}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	return strings.ReplaceAll(h, "-", "_")
}

// parseBulkRows reads the first sheet into header-keyed row maps. Fully empty
// rows are skipped, everything else becomes a row to process.
func parseBulkRows(fileBytes []byte) ([]map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("spreadsheet has no data rows")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	var parsed []map[string]string
	for _, cells := range rows[1:] {
		row := make(map[string]string)
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			var val string
			if i < len(cells) {
				val = strings.TrimSpace(cells[i])
			}
			row[header] = val
			if val != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		parsed = append(parsed, row)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("spreadsheet has no data rows")
	}
	return parsed, nil
}

// SubmitBulkJob parses the upload, creates the trackable job and kicks off
// background processing. Parse failures surface to the caller because nothing
// has been accepted yet; after this returns, progress is observable only via
// polling (and the job websocket).
func SubmitBulkJob(fileBytes []byte) (*models.BulkJob, error) {
	rows, err := parseBulkRows(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	job := models.BulkJob{
		Total:  len(rows),
		Status: models.JobStatusProcessing,
	}
	if err := database.DB.Create(&job).Error; err != nil {
		return nil, err
	}

	go processBulkJob(job.ID, rows)

	return &job, nil
}

// processBulkJob runs rows strictly sequentially: one render/convert/upload
// pipeline at a time, and no duplicate-number races within the job. A row
// failure is contained to that row; only a panic fails the whole job.
func processBulkJob(jobID uuid.UUID, rows []map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Bulk job %s panicked: %v", jobID, r)
			database.DB.Model(&models.BulkJob{}).
				Where("id = ? AND status = ?", jobID, models.JobStatusProcessing).
				Update("status", models.JobStatusFailed)
		}
	}()

	ctx := context.Background()

	for i, row := range rows {
		if err := issueRowFromData(ctx, row); err != nil {
			recordRowFailure(jobID, i, row, err)
		} else {
			bumpJobCounters(jobID, true)
		}
		publishProgress(jobID)
	}

	var failed int64
	database.DB.Model(&models.BulkJobError{}).Where("job_id = ?", jobID).Count(&failed)

	terminal := models.JobStatusCompleted
	if failed > 0 {
		terminal = models.JobStatusCompletedWithErrors
	}

	// Forward-only transition; the reaper may have failed a stuck job already.
	database.DB.Model(&models.BulkJob{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusProcessing).
		Update("status", terminal)
	publishProgress(jobID)

	log.Printf("✅ Bulk job %s finished with status %s (%d errors)", jobID, terminal, failed)
}

// bumpJobCounters advances the job's progress atomically. updated_at is
// written explicitly because UpdateColumns skips timestamp tracking, and the
// reaper reads updated_at as the liveness signal for long-running jobs.
func bumpJobCounters(jobID uuid.UUID, succeeded bool) {
	outcome := "failed"
	if succeeded {
		outcome = "success"
	}
	database.DB.Model(&models.BulkJob{}).Where("id = ?", jobID).
		UpdateColumns(map[string]interface{}{
			"processed":  gorm.Expr("processed + 1"),
			outcome:      gorm.Expr(outcome + " + 1"),
			"updated_at": time.Now(),
		})
}

// recordRowFailure captures one failed row: bump the counters atomically and
// append the error ledger entry. RowNumber is i+2 (1-based plus header row).
func recordRowFailure(jobID uuid.UUID, rowIndex int, row map[string]string, rowErr error) {
	rowJSON, err := json.Marshal(row)
	if err != nil {
		rowJSON = []byte("{}")
	}

	bumpJobCounters(jobID, false)

	jobError := models.BulkJobError{
		JobID:     jobID,
		RowNumber: rowIndex + 2,
		RowData:   rowJSON,
		Error:     rowErr.Error(),
	}
	if err := database.DB.Create(&jobError).Error; err != nil {
		log.Printf("🔥 Failed to record bulk error for job %s row %d: %v", jobID, rowIndex+2, err)
	}
}

func issueRowFromData(ctx context.Context, row map[string]string) error {
	_, err := IssueCertificate(ctx, IssueRequest{
		FirstName:    row["first_name"],
		MiddleName:   row["middle_name"],
		LastName:     row["last_name"],
		ClassName:    row["class_name"],
		TrainingDate: row["training_date"],
		Email:        row["email"],
	})
	return err
}

func publishProgress(jobID uuid.UUID) {
	var job models.BulkJob
	if err := database.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return
	}
	websocket.PublishJobProgress(jobID.String(), websocket.JobProgress{
		JobID:     jobID.String(),
		Total:     job.Total,
		Processed: job.Processed,
		Success:   job.Success,
		Failed:    job.Failed,
		Status:    job.Status,
	})
}

// GetBulkJobStatus returns the job with its error ledger, safe to poll.
// A malformed ID is indistinguishable from an unknown one; parsing up front
// also keeps Postgres from erroring on the uuid cast.
func GetBulkJobStatus(jobID string) (*models.BulkJob, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	var job models.BulkJob
	err = database.DB.
		Preload("Errors", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_number ASC")
		}).
		First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

type StillFailedRow struct {
	RowNumber int    `json:"row_number"`
	Error     string `json:"error"`
}

// ReissueFailedRows replays the unresolved error rows of a job through the
// full issue pipeline. Successes are marked resolved in place with an audit
// note; renewed failures stay unresolved for the next pass. Job counters and
// terminal status are never touched — a job that completed with errors keeps
// that status even once every row has been remediated.
func ReissueFailedRows(jobID string) (int, []StillFailedRow, error) {
	if _, err := GetBulkJobStatus(jobID); err != nil {
		return 0, nil, err
	}

	var jobErrors []models.BulkJobError
	err := database.DB.
		Where("job_id = ? AND resolved = ?", jobID, false).
		Order("row_number ASC").
		Find(&jobErrors).Error
	if err != nil {
		return 0, nil, err
	}

	ctx := context.Background()
	reissued := 0
	var stillFailed []StillFailedRow

	for _, jobError := range jobErrors {
		var row map[string]string
		if err := json.Unmarshal(jobError.RowData, &row); err != nil {
			stillFailed = append(stillFailed, StillFailedRow{
				RowNumber: jobError.RowNumber,
				Error:     fmt.Sprintf("unreadable row data: %v", err),
			})
			continue
		}

		if err := issueRowFromData(ctx, row); err != nil {
			stillFailed = append(stillFailed, StillFailedRow{
				RowNumber: jobError.RowNumber,
				Error:     err.Error(),
			})
			continue
		}

		database.DB.Model(&jobError).UpdateColumns(map[string]interface{}{
			"resolved": true,
			"error":    fmt.Sprintf("Reissued successfully on %s", utils.FormatDate(time.Now())),
		})
		reissued++
	}

	return reissued, stillFailed, nil
}

// ExportFailedRows rebuilds the unresolved failed rows as a downloadable
// spreadsheet, dates normalized back to YYYY-MM-DD and an error column
// appended.
func ExportFailedRows(jobID string) ([]byte, error) {
	if _, err := GetBulkJobStatus(jobID); err != nil {
		return nil, err
	}

	var jobErrors []models.BulkJobError
	err := database.DB.
		Where("job_id = ? AND resolved = ?", jobID, false).
		Order("row_number ASC").
		Find(&jobErrors).Error
	if err != nil {
		return nil, err
	}
	if len(jobErrors) == 0 {
		return nil, ErrNoFailedRows
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := append(append([]string{}, exportColumns...), "error")
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, jobError := range jobErrors {
		var row map[string]string
		if err := json.Unmarshal(jobError.RowData, &row); err != nil {
			row = map[string]string{}
		}

		for col, header := range exportColumns {
			val := row[header]
			if header == "training_date" && val != "" {
				if t, err := utils.NormalizeTrainingDate(val); err == nil {
					val = utils.FormatDate(t)
				}
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, val)
		}
		cell, _ := excelize.CoordinatesToCellName(len(exportColumns)+1, i+2)
		f.SetCellValue(sheet, cell, jobError.Error)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}
	return buf.Bytes(), nil
}
