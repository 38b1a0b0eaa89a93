package services

import (
	"context"
	"testing"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCertificate(t *testing.T) {
	mem := setupTest(t)
	seedTemplate(t, mem, "Fire Safety", "John Trainer")

	cert, err := IssueCertificate(context.Background(), IssueRequest{
		FirstName:    "Jane",
		LastName:     "Doe",
		ClassName:    "Fire Safety",
		TrainingDate: "2024-01-10",
		Email:        "jane@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, models.CertStatusIssued, cert.Status)
	assert.Equal(t, models.EmailStatusPending, cert.EmailStatus)
	assert.Equal(t, "John Trainer", cert.InstructorName)
	assert.Equal(t, "2024-01-10", cert.TrainingDate.Format("2006-01-02"))
	assert.NotEmpty(t, cert.CertificateNumber)
	assert.True(t, mem.Has("certificates/"+cert.CertificateNumber+".pdf"))

	var count int64
	database.DB.Model(&models.Certificate{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestIssueCertificateValidation(t *testing.T) {
	setupTest(t)

	_, err := IssueCertificate(context.Background(), IssueRequest{
		FirstName: "Jane",
		LastName:  "Doe",
	})
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	database.DB.Model(&models.Certificate{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestIssueCertificateDuplicate(t *testing.T) {
	mem := setupTest(t)
	seedTemplate(t, mem, "Fire Safety", "John Trainer")

	req := IssueRequest{
		FirstName:    "Jane",
		LastName:     "Doe",
		ClassName:    "Fire Safety",
		TrainingDate: "2024-01-10",
	}
	_, err := IssueCertificate(context.Background(), req)
	require.NoError(t, err)

	// Same (first, last, class) is rejected even with a different middle name.
	req.MiddleName = "Q"
	_, err = IssueCertificate(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateCertificate)

	var count int64
	database.DB.Model(&models.Certificate{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestIssueCertificateNoActiveTemplate(t *testing.T) {
	mem := setupTest(t)
	tmpl := seedTemplate(t, mem, "Fire Safety", "John Trainer")
	require.NoError(t, database.DB.Model(tmpl).Update("active", false).Error)

	_, err := IssueCertificate(context.Background(), IssueRequest{
		FirstName:    "Jane",
		LastName:     "Doe",
		ClassName:    "Fire Safety",
		TrainingDate: "2024-01-10",
	})
	assert.ErrorIs(t, err, ErrNoActiveTemplate)
}

func TestToggleCertificateStatus(t *testing.T) {
	mem := setupTest(t)
	seedTemplate(t, mem, "Fire Safety", "John Trainer")

	cert, err := IssueCertificate(context.Background(), IssueRequest{
		FirstName:    "Jane",
		LastName:     "Doe",
		ClassName:    "Fire Safety",
		TrainingDate: "2024-01-10",
	})
	require.NoError(t, err)

	revoked, err := ToggleCertificateStatus(cert.CertificateNumber, false, "")
	require.NoError(t, err)
	assert.Equal(t, models.CertStatusRevoked, revoked.Status)

	_, err = DownloadURL(context.Background(), cert.CertificateNumber)
	assert.ErrorIs(t, err, ErrCertificateRevoked)

	reinstated, err := ToggleCertificateStatus(cert.CertificateNumber, false, "")
	require.NoError(t, err)
	assert.Equal(t, models.CertStatusIssued, reinstated.Status)

	url, err := DownloadURL(context.Background(), cert.CertificateNumber)
	require.NoError(t, err)
	assert.Contains(t, url, cert.CertificateNumber)
}

func TestListCertificatesSearch(t *testing.T) {
	mem := setupTest(t)
	seedTemplate(t, mem, "Fire Safety", "John Trainer")
	seedTemplate(t, mem, "First Aid", "Mary Medic")

	for _, req := range []IssueRequest{
		{FirstName: "Jane", LastName: "Doe", ClassName: "Fire Safety", TrainingDate: "2024-01-10"},
		{FirstName: "Bob", LastName: "Smith", ClassName: "First Aid", TrainingDate: "2024-01-11"},
	} {
		_, err := IssueCertificate(context.Background(), req)
		require.NoError(t, err)
	}

	certs, total, err := ListCertificates("fire safety", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, certs, 1)
	assert.Equal(t, "Jane", certs[0].FirstName)

	_, total, err = ListCertificates("", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
