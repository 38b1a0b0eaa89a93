package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// NextCertificateNumber allocates a day-scoped certificate number of the form
// YYYYMMDD-<seq>. The per-day counter row is bumped in a single upsert, so two
// concurrent issuances can never read the same sequence value. The unique
// index on certificates.certificate_number remains the backstop.
func NextCertificateNumber(db *gorm.DB) (string, error) {
	stamp := time.Now().UTC().Format("20060102")

	var seq int64
	err := db.Raw(
		`INSERT INTO certificate_counters (date_stamp, seq) VALUES (?, 1)
		 ON CONFLICT (date_stamp) DO UPDATE SET seq = certificate_counters.seq + 1
		 RETURNING seq`,
		stamp,
	).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("allocate certificate number: %w", err)
	}

	return fmt.Sprintf("%s-%d", stamp, seq), nil
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func cleanFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), "_")
	return filenameUnsafe.ReplaceAllString(s, "")
}

// FormatCertificateFilename builds the attachment/file name
// <number>_<first>[_<middle>]_<last>, stripped to filename-safe characters.
func FormatCertificateFilename(certNumber, firstName, middleName, lastName string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{certNumber, firstName, middleName, lastName} {
		if cleaned := cleanFilenamePart(p); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, "_")
}
