package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/notifications"
	"github.com/certforge/cert_portal/storage"
	"github.com/certforge/cert_portal/utils"
	"gorm.io/gorm"
)

const signedURLTTL = 5 * time.Minute

type IssueRequest struct {
	FirstName    string
	MiddleName   string
	LastName     string
	ClassName    string
	TrainingDate string
	Email        string
}

// IssueCertificate runs the single-issue pipeline:
// validate → duplicate check → resolve template → allocate number → render →
// convert → upload → persist. Failures before the upload have no side
// effects; a failure between upload and persist leaves an orphaned object
// that the next attempt overwrites or supersedes.
func IssueCertificate(ctx context.Context, req IssueRequest) (*models.Certificate, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.MiddleName = strings.TrimSpace(req.MiddleName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.ClassName = strings.TrimSpace(req.ClassName)

	if req.FirstName == "" || req.LastName == "" || req.ClassName == "" || strings.TrimSpace(req.TrainingDate) == "" {
		return nil, ErrValidation
	}

	trainingDate, err := utils.NormalizeTrainingDate(req.TrainingDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Pre-check only; the unique index on (first_name, last_name, class_name)
	// is the actual duplicate guard.
	var existing models.Certificate
	err = database.DB.
		Where("first_name = ? AND last_name = ? AND class_name = ?", req.FirstName, req.LastName, req.ClassName).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateCertificate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tmpl, err := ResolveTemplate(req.ClassName)
	if err != nil {
		return nil, err
	}

	certificateNumber, err := utils.NextCertificateNumber(database.DB)
	if err != nil {
		return nil, err
	}

	qrPNG, err := utils.GenerateVerificationQR(certificateNumber)
	if err != nil {
		return nil, err
	}

	templateHTML, err := storage.Client.Get(ctx, tmpl.TemplateKey)
	if err != nil {
		return nil, fmt.Errorf("fetch template %s: %w", tmpl.TemplateKey, err)
	}
	signaturePNG, err := storage.Client.Get(ctx, tmpl.SignatureKey)
	if err != nil {
		return nil, fmt.Errorf("fetch signature %s: %w", tmpl.SignatureKey, err)
	}

	issueDate := time.Now().UTC()
	fields := CertificateFields{
		FirstName:         req.FirstName,
		MiddleName:        req.MiddleName,
		LastName:          req.LastName,
		ClassName:         req.ClassName,
		TrainingDate:      utils.FormatDate(trainingDate),
		IssueDate:         utils.FormatDate(issueDate),
		CertificateNumber: certificateNumber,
		InstructorName:    tmpl.InstructorName,
	}

	html, err := RenderCertificateHTML(templateHTML, fields, qrPNG, signaturePNG)
	if err != nil {
		return nil, err
	}

	pdf, err := ConvertHTMLToPDF(html)
	if err != nil {
		return nil, err
	}

	pdfKey := fmt.Sprintf("certificates/%s.pdf", certificateNumber)
	if err := storage.Client.Put(ctx, pdfKey, pdf, "application/pdf"); err != nil {
		return nil, err
	}

	cert := models.Certificate{
		CertificateNumber: certificateNumber,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		ClassName:         req.ClassName,
		TrainingDate:      trainingDate,
		IssueDate:         issueDate,
		InstructorName:    tmpl.InstructorName,
		TemplateID:        tmpl.ID,
		PdfKey:            pdfKey,
		Status:            models.CertStatusIssued,
		EmailStatus:       models.EmailStatusPending,
	}
	if req.MiddleName != "" {
		cert.MiddleName = &req.MiddleName
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		cert.Email = &email
	}

	if err := database.DB.Create(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCertificate
		}
		return nil, err
	}

	log.Printf("✅ Issued certificate %s for %s (%s)", certificateNumber, cert.StudentName(), req.ClassName)
	return &cert, nil
}

// ResolveTemplate finds the active template for a class. Issuance must fail
// when there is none, never substitute a default.
func ResolveTemplate(className string) (*models.Template, error) {
	var tmpl models.Template
	err := database.DB.
		Where("class_name = ? AND active = ?", className, true).
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveTemplate
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func GetCertificateByNumber(certificateNumber string) (*models.Certificate, error) {
	var cert models.Certificate
	err := database.DB.Where("certificate_number = ?", certificateNumber).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// ToggleCertificateStatus flips ISSUED↔REVOKED. The notification is best
// effort and never fails the toggle.
func ToggleCertificateStatus(certificateNumber string, notify bool, adminMessage string) (*models.Certificate, error) {
	cert, err := GetCertificateByNumber(certificateNumber)
	if err != nil {
		return nil, err
	}

	if cert.Status == models.CertStatusIssued {
		cert.Status = models.CertStatusRevoked
	} else {
		cert.Status = models.CertStatusIssued
	}

	if err := database.DB.Model(cert).Update("status", cert.Status).Error; err != nil {
		return nil, err
	}

	if notify && cert.Email != nil {
		go notifications.SendCertificateStatusEmail(
			*cert.Email, cert.StudentName(), cert.CertificateNumber, cert.Status, adminMessage)
	}

	return cert, nil
}

// DownloadURL re-validates status and mints a short-lived signed URL. The
// server never proxies the PDF bytes itself.
func DownloadURL(ctx context.Context, certificateNumber string) (string, error) {
	cert, err := GetCertificateByNumber(certificateNumber)
	if err != nil {
		return "", err
	}
	if cert.Status != models.CertStatusIssued {
		return "", ErrCertificateRevoked
	}
	return storage.Client.SignedURL(ctx, cert.PdfKey, signedURLTTL)
}

// ListCertificates pages through certificates with free-text search across
// names, class, number and instructor.
func ListCertificates(search string, page, limit int) ([]models.Certificate, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Certificate{})
	if s := strings.TrimSpace(search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where(
			`LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(class_name) LIKE ?
			 OR LOWER(certificate_number) LIKE ? OR LOWER(instructor_name) LIKE ?`,
			pattern, pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var certs []models.Certificate
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&certs).Error
	return certs, total, err
}
