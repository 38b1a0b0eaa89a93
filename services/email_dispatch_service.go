package services

import (
	"context"
	"log"
	"time"

	config "github.com/certforge/cert_portal/configs"
	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/notifications"
	"github.com/certforge/cert_portal/storage"
	"github.com/certforge/cert_portal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultEmailBatchSize   = 50
	defaultEmailMaxAttempts = 5
)

// DispatchBatch selects the next batch of deliverable certificates, locks
// them by flipping their delivery status to PROCESSING, and sends in the
// background. FAILED certificates under the attempt cap are re-selected
// automatically; SENT ones never are.
func DispatchBatch() (int, error) {
	certs, err := lockBatch()
	if err != nil {
		return 0, err
	}
	if len(certs) > 0 {
		go sendBatch(certs)
	}
	return len(certs), nil
}

func lockBatch() ([]models.Certificate, error) {
	batchSize := config.ConfigInt("EMAIL_BATCH_SIZE", defaultEmailBatchSize)
	maxAttempts := config.ConfigInt("EMAIL_MAX_ATTEMPTS", defaultEmailMaxAttempts)

	var candidates []models.Certificate
	err := database.DB.
		Where("status = ? AND email IS NOT NULL", models.CertStatusIssued).
		Where("email_status = ? OR (email_status = ? AND email_attempts < ?)",
			models.EmailStatusPending, models.EmailStatusFailed, maxAttempts).
		Order("created_at ASC").
		Limit(batchSize).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	// Claim each row individually: the guarded update succeeds for exactly
	// one caller, so cron firing while staff hits the dispatch endpoint can
	// never double-send a certificate.
	var locked []models.Certificate
	for i := range candidates {
		if claimForDispatch(candidates[i].ID) {
			locked = append(locked, candidates[i])
		}
	}
	return locked, nil
}

func claimForDispatch(id uuid.UUID) bool {
	res := database.DB.Model(&models.Certificate{}).
		Where("id = ? AND email_status IN ?", id,
			[]string{models.EmailStatusPending, models.EmailStatusFailed}).
		Update("email_status", models.EmailStatusProcessing)
	return res.Error == nil && res.RowsAffected == 1
}

// sendBatch works through the locked batch strictly sequentially: fetch the
// stored PDF, send it as an attachment, record the outcome per certificate.
func sendBatch(certs []models.Certificate) {
	ctx := context.Background()

	for i := range certs {
		cert := &certs[i]

		pdf, err := storage.Client.Get(ctx, cert.PdfKey)
		if err != nil {
			markEmailFailed(cert, err)
			continue
		}

		middle := ""
		if cert.MiddleName != nil {
			middle = *cert.MiddleName
		}

		err = notifications.SendCertificateEmail(notifications.CertificateEmail{
			To:                *cert.Email,
			StudentName:       cert.StudentName(),
			ClassName:         cert.ClassName,
			TrainingDate:      utils.FormatDate(cert.TrainingDate),
			CertificateNumber: cert.CertificateNumber,
			Filename: utils.FormatCertificateFilename(
				cert.CertificateNumber, cert.FirstName, middle, cert.LastName),
			PDF: pdf,
		})
		if err != nil {
			markEmailFailed(cert, err)
			continue
		}

		now := time.Now().UTC()
		database.DB.Model(cert).UpdateColumns(map[string]interface{}{
			"email_status":   models.EmailStatusSent,
			"email_sent_at":  now,
			"email_error":    nil,
			"email_attempts": gorm.Expr("email_attempts + 1"),
		})
		log.Printf("✅ Certificate email sent for %s → %s", cert.CertificateNumber, *cert.Email)
	}
}

func markEmailFailed(cert *models.Certificate, sendErr error) {
	log.Printf("🔥 Certificate email failed for %s: %v", cert.CertificateNumber, sendErr)
	database.DB.Model(cert).UpdateColumns(map[string]interface{}{
		"email_status":   models.EmailStatusFailed,
		"email_error":    sendErr.Error(),
		"email_attempts": gorm.Expr("email_attempts + 1"),
	})
}

type EmailStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
}

func GetEmailStats() (*EmailStats, error) {
	stats := &EmailStats{}
	counts := []struct {
		status string
		dest   *int64
	}{
		{models.EmailStatusPending, &stats.Pending},
		{models.EmailStatusProcessing, &stats.Processing},
		{models.EmailStatusSent, &stats.Sent},
		{models.EmailStatusFailed, &stats.Failed},
	}
	for _, c := range counts {
		err := database.DB.Model(&models.Certificate{}).
			Where("email IS NOT NULL AND email_status = ?", c.status).
			Count(c.dest).Error
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
