package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// pdfConversionTimeout bounds the out-of-process headless-Chrome run. A hung
// or crashed renderer aborts the calling workflow or bulk row, never the
// whole job.
const pdfConversionTimeout = 120 * time.Second

type CertificateFields struct {
	FirstName         string
	MiddleName        string
	LastName          string
	ClassName         string
	TrainingDate      string
	IssueDate         string
	CertificateNumber string
	InstructorName    string
}

// ConvertHTMLToPDF is a variable so tests can substitute the headless-Chrome
// step with a stub.
var ConvertHTMLToPDF = generatePDFFromHTML

// RenderCertificateHTML merges applicant fields, the verification QR and the
// instructor signature into the class template. Both images are required;
// a template whose stored files are missing fails the row rather than
// producing an unsigned certificate.
func RenderCertificateHTML(templateHTML []byte, fields CertificateFields, qrPNG, signaturePNG []byte) (string, error) {
	if len(qrPNG) == 0 {
		return "", fmt.Errorf("render: QR image is missing")
	}
	if len(signaturePNG) == 0 {
		return "", fmt.Errorf("render: instructor signature image is missing")
	}

	tmpl, err := template.New("certificate").Parse(string(templateHTML))
	if err != nil {
		return "", fmt.Errorf("parse certificate template: %w", err)
	}

	data := struct {
		CertificateFields
		QRCode              template.URL
		InstructorSignature template.URL
	}{
		CertificateFields:   fields,
		QRCode:              pngDataURI(qrPNG),
		InstructorSignature: pngDataURI(signaturePNG),
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("execute certificate template: %w", err)
	}

	return injectWatermark(rendered.String(), fields.CertificateNumber), nil
}

func pngDataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// injectWatermark overlays a repeated diagonal certificate-number layer so a
// printed or screenshotted copy still carries the number.
func injectWatermark(html, certificateNumber string) string {
	var marks strings.Builder
	for row := 0; row < 8; row++ {
		for col := 0; col < 6; col++ {
			fmt.Fprintf(&marks,
				`<span style="position:absolute;left:%dpx;top:%dpx;">%s</span>`,
				col*200-100, row*150-100, template.HTMLEscapeString(certificateNumber))
		}
	}

	layer := fmt.Sprintf(
		`<div style="position:fixed;inset:0;overflow:hidden;pointer-events:none;`+
			`font-size:32px;color:rgba(153,153,153,0.28);transform:rotate(-45deg);">%s</div>`,
		marks.String())

	if idx := strings.LastIndex(html, "</body>"); idx >= 0 {
		return html[:idx] + layer + html[idx:]
	}
	return html + layer
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pdfConversionTimeout)
	defer cancel()

	ctx, cancelChrome := chromedp.NewContext(ctx)
	defer cancelChrome()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("convert certificate to PDF: %w", err)
	}
	return pdfBuffer, nil
}
