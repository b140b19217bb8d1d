package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"

	"github.com/google/uuid"

	"supportdesk/internal/config"
	"supportdesk/internal/domain"
)

// EmailService sends the support confirmation email. Whether a send happens
// at all is gated here: the confirmation toggle and template resolution
// cause silent skips, while an actual dispatch failure is returned to the
// caller as a hard error.
type EmailService struct {
	cfg *config.Config
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

// confirmationData is what the configured template is rendered with.
type confirmationData struct {
	FullName      string
	Subject       string
	Message       string
	ContactReason string
	ContactMethod string
}

// SendConfirmation dispatches the confirmation email for a newly created
// full-tier request. It returns whether a message was dispatched. Skips
// (toggle off, template unset or unresolvable) return (false, nil); a
// failed dispatch returns the error unmodified.
func (s *EmailService) SendConfirmation(req *domain.Request) (bool, error) {
	if !s.cfg.Support.SendConfirmation {
		log.Printf("[EMAIL] Confirmation sending disabled, skipping for request id=%d", req.ID)
		return false, nil
	}

	tmplPath := s.cfg.Support.ResolveConfirmationTemplate()
	if tmplPath == "" {
		log.Printf("[EMAIL] Confirmation template not configured or not found, skipping for request id=%d", req.ID)
		return false, nil
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return false, fmt.Errorf("failed to parse confirmation template: %w", err)
	}

	data := confirmationData{
		FullName: req.FullName,
		Subject:  req.Subject,
		Message:  req.Message,
	}
	if req.Full != nil {
		data.ContactReason = req.Full.ContactReason.Display()
		data.ContactMethod = req.Full.PreferredContactMethod.Display()
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return false, fmt.Errorf("failed to render confirmation template: %w", err)
	}

	message := s.buildMessage(req.Email, s.cfg.Support.ConfirmationSubject, body.String())

	if !s.cfg.Email.Enabled {
		// Development mode: log instead of dialing SMTP.
		log.Printf("[EMAIL] Would send confirmation to %s: %s", req.Email, s.cfg.Support.ConfirmationSubject)
		return true, nil
	}

	auth := smtp.PlainAuth("", s.cfg.Email.Username, s.cfg.Email.Password, s.cfg.Email.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.Email.SMTPHost, s.cfg.Email.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.cfg.Email.FromEmail, []string{req.Email}, message); err != nil {
		return false, fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return true, nil
}

// buildMessage assembles the wire message with the fixed transport headers:
// MIME version, HTML content type, transfer encoding, priority, a fresh
// Message-ID scoped to the site domain, auto-response suppression, and a
// spam score override.
func (s *EmailService) buildMessage(to, subject, htmlBody string) []byte {
	from := s.cfg.Email.FromEmail
	if s.cfg.Email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.Email.FromName, s.cfg.Email.FromEmail)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.App.SiteDomain)

	message := fmt.Sprintf("From: %s\r\n", from) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"X-Priority: 3\r\n" +
		fmt.Sprintf("Message-ID: %s\r\n", messageID) +
		"X-Auto-Response-Suppress: All\r\n" +
		"X-Spam-Score: 0.0\r\n" +
		"\r\n" +
		htmlBody + "\r\n"

	return []byte(message)
}

// IsEnabled returns whether the SMTP transport is enabled
func (s *EmailService) IsEnabled() bool {
	return s.cfg.Email.Enabled
}
