package models

// CertificateCounter holds the per-day sequence used for certificate numbers.
// The row for a date stamp is incremented in a single upsert so concurrent
// issuances never observe the same sequence value.
type CertificateCounter struct {
	DateStamp string `gorm:"size:8;primary_key" json:"date_stamp"`
	Seq       int64  `gorm:"not null;default:0" json:"seq"`
}
