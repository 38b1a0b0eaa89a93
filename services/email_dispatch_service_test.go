package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/notifications"
	"github.com/certforge/cert_portal/storage"
	"github.com/certforge/cert_portal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []notifications.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(msg notifications.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.ToEmail] {
		return fmt.Errorf("mailbox unavailable for %s", msg.ToEmail)
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func installFakeSender(t *testing.T, failFor ...string) *fakeSender {
	t.Helper()

	fake := &fakeSender{failFor: make(map[string]bool)}
	for _, addr := range failFor {
		fake.failFor[addr] = true
	}
	prev := notifications.EmailClient
	notifications.EmailClient = fake
	t.Cleanup(func() { notifications.EmailClient = prev })
	return fake
}

func seedDeliverableCert(t *testing.T, mem *storage.MemoryStore, tmpl *models.Template, first, last, email string) *models.Certificate {
	t.Helper()

	number, err := utils.NextCertificateNumber(database.DB)
	require.NoError(t, err)

	pdfKey := fmt.Sprintf("certificates/%s.pdf", number)
	require.NoError(t, mem.Put(context.Background(), pdfKey, []byte("%PDF-1.4 stub"), "application/pdf"))

	cert := models.Certificate{
		CertificateNumber: number,
		FirstName:         first,
		LastName:          last,
		ClassName:         tmpl.ClassName,
		TrainingDate:      mustDate(t, "2024-01-10"),
		IssueDate:         mustDate(t, "2024-01-11"),
		InstructorName:    tmpl.InstructorName,
		TemplateID:        tmpl.ID,
		PdfKey:            pdfKey,
		Status:            models.CertStatusIssued,
		EmailStatus:       models.EmailStatusPending,
		Email:             &email,
	}
	require.NoError(t, database.DB.Create(&cert).Error)
	return &cert
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed
}

func TestDispatchBatchRetryClosure(t *testing.T) {
	mem := setupTest(t)
	tmpl := seedTemplate(t, mem, "Fire Safety", "John Trainer")
	fake := installFakeSender(t, "bad@example.com")

	good1 := seedDeliverableCert(t, mem, tmpl, "Jane", "Doe", "jane@example.com")
	bad := seedDeliverableCert(t, mem, tmpl, "Bob", "Smith", "bad@example.com")
	good2 := seedDeliverableCert(t, mem, tmpl, "Alice", "Jones", "alice@example.com")

	certs, err := lockBatch()
	require.NoError(t, err)
	require.Len(t, certs, 3)

	// The lock step transitions the batch before any send happens.
	var locked int64
	database.DB.Model(&models.Certificate{}).
		Where("email_status = ?", models.EmailStatusProcessing).Count(&locked)
	assert.EqualValues(t, 3, locked)

	sendBatch(certs)

	stats, err := GetEmailStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Sent)
	assert.EqualValues(t, 1, stats.Failed)
	assert.EqualValues(t, 0, stats.Pending)
	assert.Equal(t, 2, fake.sentCount())

	for _, id := range []string{good1.CertificateNumber, good2.CertificateNumber} {
		cert, err := GetCertificateByNumber(id)
		require.NoError(t, err)
		assert.Equal(t, models.EmailStatusSent, cert.EmailStatus)
		assert.NotNil(t, cert.EmailSentAt)
		assert.Nil(t, cert.EmailError)
	}

	failed, err := GetCertificateByNumber(bad.CertificateNumber)
	require.NoError(t, err)
	assert.Equal(t, models.EmailStatusFailed, failed.EmailStatus)
	require.NotNil(t, failed.EmailError)
	assert.Contains(t, *failed.EmailError, "mailbox unavailable")
	assert.Equal(t, 1, failed.EmailAttempts)

	// Next dispatch re-selects only the failed certificate; SENT never again.
	certs, err = lockBatch()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, bad.CertificateNumber, certs[0].CertificateNumber)
}

// The PROCESSING claim is a guarded update on each row, so of two dispatchers
// racing over the same certificate exactly one wins it.
func TestClaimForDispatchSingleWinner(t *testing.T) {
	mem := setupTest(t)
	tmpl := seedTemplate(t, mem, "Fire Safety", "John Trainer")
	installFakeSender(t)

	cert := seedDeliverableCert(t, mem, tmpl, "Jane", "Doe", "jane@example.com")

	assert.True(t, claimForDispatch(cert.ID))
	assert.False(t, claimForDispatch(cert.ID), "a claimed certificate must not be claimable again")

	// A batch built while another dispatcher holds the row skips it.
	certs, err := lockBatch()
	require.NoError(t, err)
	assert.Empty(t, certs)
}

func TestDispatchBatchAttemptCap(t *testing.T) {
	mem := setupTest(t)
	tmpl := seedTemplate(t, mem, "Fire Safety", "John Trainer")
	installFakeSender(t)

	cert := seedDeliverableCert(t, mem, tmpl, "Bob", "Smith", "bob@example.com")
	require.NoError(t, database.DB.Model(cert).UpdateColumns(map[string]interface{}{
		"email_status":   models.EmailStatusFailed,
		"email_attempts": 5,
	}).Error)

	certs, err := lockBatch()
	require.NoError(t, err)
	assert.Empty(t, certs, "certificates at the attempt cap must not be re-selected")
}

func TestDispatchSkipsRevokedAndEmailless(t *testing.T) {
	mem := setupTest(t)
	tmpl := seedTemplate(t, mem, "Fire Safety", "John Trainer")
	installFakeSender(t)

	revoked := seedDeliverableCert(t, mem, tmpl, "Jane", "Doe", "jane@example.com")
	require.NoError(t, database.DB.Model(revoked).Update("status", models.CertStatusRevoked).Error)

	noEmail := seedDeliverableCert(t, mem, tmpl, "Bob", "Smith", "bob@example.com")
	require.NoError(t, database.DB.Model(noEmail).Update("email", nil).Error)

	certs, err := lockBatch()
	require.NoError(t, err)
	assert.Empty(t, certs)
}
