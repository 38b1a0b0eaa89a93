package notifications

import (
	"fmt"
	"log"
)

type CertificateEmail struct {
	To                string
	StudentName       string
	ClassName         string
	TrainingDate      string
	CertificateNumber string
	Filename          string
	PDF               []byte
}

// SendCertificateEmail delivers the issued certificate as a PDF attachment.
// The error is returned to the dispatch engine so it lands on the certificate
// record and stays eligible for retry.
func SendCertificateEmail(email CertificateEmail) error {
	if EmailClient == nil {
		return fmt.Errorf("email client not initialized")
	}

	html := fmt.Sprintf(`
<p>Dear %s,</p>

<p>
Attached is your Training Completion Certificate for the
<strong>%s</strong> course you completed on %s.
</p>

<p>
Please review the certificate for accuracy and retain a copy for your
records. If your employer, licensing agency, or other organization requires
proof of training, you may provide them with this certificate as
documentation of course completion.
</p>

<hr />

<p><strong>Certificate Verification</strong></p>

<p>
This certificate is non-transferable and protected by QR code verification.
Scanning the QR code will confirm the authenticity and status of the
certificate. Alteration or misuse will result in revocation; revoked
certificates will not validate.
</p>

<hr />

<p><strong>Important Notice</strong></p>

<p>
Completion of this training does not guarantee approval, issuance, or
renewal of any license, permit, certification, or employment. This
certificate confirms successful completion of the training course only.
</p>

<p>
If you have any questions or believe corrections are needed, please contact
us by replying to this email.
</p>
`, email.StudentName, email.ClassName, email.TrainingDate)

	return EmailClient.Send(Message{
		ToEmail:     email.To,
		ToName:      email.StudentName,
		Subject:     "Your Training Completion Certificate – Attached",
		HTMLContent: html,
		Attachments: []Attachment{
			{Name: email.Filename + ".pdf", Content: email.PDF},
		},
	})
}

// SendCertificateStatusEmail notifies the recipient that their certificate was
// revoked or reinstated. Best effort only: failures are logged and swallowed,
// a status change must never fail because of email.
func SendCertificateStatusEmail(to, studentName, certificateNumber, status, adminMessage string) {
	if EmailClient == nil {
		log.Println("Email client not initialized, skipping status email.")
		return
	}

	isRevoked := status == "REVOKED"

	subject := "Your Training Certificate Has Been Reinstated"
	verb := "reinstated"
	if isRevoked {
		subject = "Important: Your Training Certificate Has Been Revoked"
		verb = "revoked"
	}

	adminBlock := ""
	if adminMessage != "" {
		adminBlock = fmt.Sprintf(`
<p style="margin-top:16px;"><strong>Message from the administrator:</strong></p>
<blockquote style="border-left:3px solid #ccc;padding-left:12px;color:#444;">%s</blockquote>
`, adminMessage)
	}

	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; font-size:14px; line-height:1.6;">
  <p>Dear %s,</p>

  <p>
    Your training certificate <strong>%s</strong> has been
    <strong>%s</strong>.
  </p>
  %s
  <p style="margin-top:16px;">
    If you have any questions or believe this was done in error, please reply
    to this email.
  </p>
</div>
`, studentName, certificateNumber, verb, adminBlock)

	err := EmailClient.Send(Message{
		ToEmail:     to,
		ToName:      studentName,
		Subject:     subject,
		HTMLContent: html,
	})
	if err != nil {
		log.Printf("🔥 Failed to send status email for %s: %v", certificateNumber, err)
		return
	}
	log.Printf("✅ Status email sent for %s (%s)", certificateNumber, verb)
}
