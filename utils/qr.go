package utils

import (
	"fmt"

	config "github.com/certforge/cert_portal/configs"
	qrcode "github.com/skip2/go-qrcode"
)

// GenerateVerificationQR renders the public verify URL for a certificate as a
// 300px PNG with high error correction, matching what gets printed on the
// document.
func GenerateVerificationQR(certificateNumber string) ([]byte, error) {
	verifyURL := fmt.Sprintf("%s/%s", config.Config("VERIFY_BASE_URL"), certificateNumber)

	png, err := qrcode.Encode(verifyURL, qrcode.High, 300)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}
	return png, nil
}
