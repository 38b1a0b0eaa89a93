package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/models"
	"github.com/certforge/cert_portal/storage"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testTemplateHTML = `<html><body>
<h1>{{.FirstName}} {{.MiddleName}} {{.LastName}}</h1>
<p>{{.ClassName}} — {{.TrainingDate}}</p>
<p>{{.CertificateNumber}} issued {{.IssueDate}} by {{.InstructorName}}</p>
<img src="{{.QRCode}}" /><img src="{{.InstructorSignature}}" />
</body></html>`

// setupTest swaps the package globals for an in-memory database, an in-memory
// object store and a stubbed PDF converter.
func setupTest(t *testing.T) *storage.MemoryStore {
	t.Helper()

	dsn := fmt.Sprintf("file:services_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.Certificate{},
		&models.CertificateCounter{},
		&models.BulkJob{},
		&models.BulkJobError{},
	))
	database.DB = db

	mem := storage.NewMemoryStore()
	storage.Client = mem

	realConvert := ConvertHTMLToPDF
	ConvertHTMLToPDF = func(_ string) ([]byte, error) {
		return []byte("%PDF-1.4 stub"), nil
	}
	t.Cleanup(func() { ConvertHTMLToPDF = realConvert })

	return mem
}

func seedTemplate(t *testing.T, mem *storage.MemoryStore, className, instructorName string) *models.Template {
	t.Helper()

	templateKey := fmt.Sprintf("templates/%s/template.html", className)
	signatureKey := fmt.Sprintf("templates/%s/signature.png", className)

	ctx := context.Background()
	require.NoError(t, mem.Put(ctx, templateKey, []byte(testTemplateHTML), "text/html"))
	require.NoError(t, mem.Put(ctx, signatureKey, []byte("png-signature-bytes"), "image/png"))

	tmpl := models.Template{
		TemplateName:   className + " Certificate",
		ClassName:      className,
		TemplateKey:    templateKey,
		SignatureKey:   signatureKey,
		InstructorName: instructorName,
	}
	require.NoError(t, database.DB.Create(&tmpl).Error)
	return &tmpl
}
