package jobs

import (
	"log"
	"time"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
)

const (
	bulkJobDeadline   = 30 * time.Minute
	emailSendDeadline = 15 * time.Minute
)

// ReapStuckWork is the reconciliation sweep for crash recovery. A process
// restart mid-batch leaves bulk jobs in PROCESSING and certificates locked in
// email PROCESSING; nothing else ever moves them again, so the sweep does.
func ReapStuckWork() {
	log.Println("Running job: ReapStuckWork...")

	res := database.DB.Model(&models.BulkJob{}).
		Where("status = ? AND updated_at < ?", models.JobStatusProcessing, time.Now().Add(-bulkJobDeadline)).
		Update("status", models.JobStatusFailed)
	if res.Error != nil {
		log.Printf("🔥 Failed to reap stuck bulk jobs: %v", res.Error)
	} else if res.RowsAffected > 0 {
		log.Printf("⚠️ Marked %d stuck bulk jobs as FAILED", res.RowsAffected)
	}

	res = database.DB.Model(&models.Certificate{}).
		Where("email_status = ? AND updated_at < ?", models.EmailStatusProcessing, time.Now().Add(-emailSendDeadline)).
		UpdateColumns(map[string]interface{}{
			"email_status": models.EmailStatusFailed,
			"email_error":  "email send interrupted, returned to retry queue",
		})
	if res.Error != nil {
		log.Printf("🔥 Failed to reap stuck certificate emails: %v", res.Error)
	} else if res.RowsAffected > 0 {
		log.Printf("⚠️ Returned %d stuck certificate emails to FAILED for retry", res.RowsAffected)
	}
}
