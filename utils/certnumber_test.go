package utils

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/certforge/cert_portal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openCounterDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:certnumber_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CertificateCounter{}))
	return db
}

func TestNextCertificateNumberSequence(t *testing.T) {
	db := openCounterDB(t)
	stamp := time.Now().UTC().Format("20060102")

	seen := make(map[string]bool)
	lastSeq := 0
	for i := 0; i < 5; i++ {
		number, err := NextCertificateNumber(db)
		require.NoError(t, err)

		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true

		parts := strings.SplitN(number, "-", 2)
		require.Len(t, parts, 2)
		assert.Equal(t, stamp, parts[0])

		seq, err := strconv.Atoi(parts[1])
		require.NoError(t, err)
		assert.Greater(t, seq, lastSeq, "sequence must strictly increase")
		lastSeq = seq
	}
}

func TestFormatCertificateFilename(t *testing.T) {
	got := FormatCertificateFilename("20240110-1", "Jane", "", "D'Oe")
	assert.Equal(t, "202401101_Jane_DOe", got)

	got = FormatCertificateFilename("20240110-2", "Mary Ann", "van", "der Berg")
	assert.Equal(t, "202401102_Mary_Ann_van_der_Berg", got)
}
