package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportdesk/internal/config"
	"supportdesk/internal/domain"
)

func emailTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	tmpl := "<html><body>Hi {{.FullName}}, we got: {{.Subject}} ({{.ContactReason}})</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "confirm.html"), []byte(tmpl), 0o644))

	return &config.Config{
		App: config.AppConfig{SiteDomain: "support.example.com"},
		Email: config.EmailConfig{
			Enabled:   false,
			FromEmail: "noreply@example.com",
			FromName:  "Support Desk",
		},
		Support: config.SupportConfig{
			SendConfirmation:     true,
			TemplateDir:          dir,
			ConfirmationTemplate: "confirm.html",
			ConfirmationSubject:  "We received your request",
		},
	}
}

func confirmationRequest() *domain.Request {
	req := &domain.Request{
		SupportRequest: domain.SupportRequest{
			Tier:     domain.TierFull,
			Subject:  "Billing question",
			FullName: "John Doe",
			Email:    "john@example.com",
			Message:  "I have a question.",
		},
		Full: &domain.FullExtension{
			ContactReason:          domain.ReasonSales,
			PreferredContactMethod: domain.MethodPhone,
		},
	}
	req.ID = 7
	return req
}

func TestSendConfirmationSkipsWhenDisabled(t *testing.T) {
	cfg := emailTestConfig(t)
	cfg.Support.SendConfirmation = false

	sent, err := NewEmailService(cfg).SendConfirmation(confirmationRequest())
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSendConfirmationSkipsWithoutTemplate(t *testing.T) {
	t.Run("template unset", func(t *testing.T) {
		cfg := emailTestConfig(t)
		cfg.Support.ConfirmationTemplate = ""

		sent, err := NewEmailService(cfg).SendConfirmation(confirmationRequest())
		require.NoError(t, err)
		assert.False(t, sent)
	})

	t.Run("template unresolvable", func(t *testing.T) {
		cfg := emailTestConfig(t)
		cfg.Support.ConfirmationTemplate = "nowhere.html"

		sent, err := NewEmailService(cfg).SendConfirmation(confirmationRequest())
		require.NoError(t, err)
		assert.False(t, sent)
	})
}

func TestSendConfirmationConsoleMode(t *testing.T) {
	// SMTP disabled: the message is rendered and logged but counts as
	// dispatched so the pipeline records it the same way.
	cfg := emailTestConfig(t)

	sent, err := NewEmailService(cfg).SendConfirmation(confirmationRequest())
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestBuildMessageHeaders(t *testing.T) {
	cfg := emailTestConfig(t)
	svc := NewEmailService(cfg)

	msg := string(svc.buildMessage("john@example.com", "We received your request", "<html>ok</html>"))

	assert.Contains(t, msg, "From: Support Desk <noreply@example.com>\r\n")
	assert.Contains(t, msg, "To: john@example.com\r\n")
	assert.Contains(t, msg, "Subject: We received your request\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.Contains(t, msg, "Content-Transfer-Encoding: quoted-printable\r\n")
	assert.Contains(t, msg, "X-Priority: 3\r\n")
	assert.Contains(t, msg, "@support.example.com>\r\n")
	assert.Contains(t, msg, "X-Auto-Response-Suppress: All\r\n")
	assert.Contains(t, msg, "X-Spam-Score: 0.0\r\n")
	assert.Contains(t, msg, "\r\n\r\n<html>ok</html>\r\n")
}

func TestBuildMessageWithoutFromName(t *testing.T) {
	cfg := emailTestConfig(t)
	cfg.Email.FromName = ""
	svc := NewEmailService(cfg)

	msg := string(svc.buildMessage("john@example.com", "Subject", "body"))
	assert.Contains(t, msg, "From: noreply@example.com\r\n")
}
