// Package mailer dispatches transactional email in the background.
//
// Delivery is at-most-once and best-effort: each send runs on its own
// goroutine, failures are logged and counted but never surfaced to the
// request that triggered them.
package mailer

import (
	"fmt"
	"html"

	"quill/internal/middleware"
	"quill/internal/observability"

	"github.com/resend/resend-go/v2"
)

// Sender delivers a single email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Mailer renders account emails and hands them to a Sender off the request
// goroutine.
type Mailer struct {
	sender     Sender
	subjectTag string
	baseURL    string
}

// New returns a Mailer delivering through the given sender. A nil sender
// turns every dispatch into a logged no-op, which keeps development setups
// without mail credentials working.
func New(sender Sender, subjectTag, baseURL string) *Mailer {
	return &Mailer{sender: sender, subjectTag: subjectTag, baseURL: baseURL}
}

// SendConfirmation emails the account confirmation link.
func (m *Mailer) SendConfirmation(to, username, tok string) {
	body := fmt.Sprintf(
		`<h1>Hello, %s!</h1><p>Welcome to Quill. Confirm your account by following <a href=%q>this link</a>.</p><p>The link is valid for a limited time.</p>`,
		html.EscapeString(username), m.actionURL("confirm", tok))
	m.dispatch("confirm", to, "Confirm your account", body)
}

// SendChangeEmail emails the change confirmation link to the new address.
func (m *Mailer) SendChangeEmail(to, username, tok string) {
	body := fmt.Sprintf(
		`<h1>Hello, %s!</h1><p>Confirm your new email address by following <a href=%q>this link</a>.</p><p>If you did not request this change, ignore this message.</p>`,
		html.EscapeString(username), m.actionURL("change-email/confirm", tok))
	m.dispatch("change_email", to, "Confirm your new email address", body)
}

// SendPasswordReset emails the password reset link.
func (m *Mailer) SendPasswordReset(to, username, tok string) {
	body := fmt.Sprintf(
		`<h1>Hello, %s!</h1><p>Reset your password by following <a href=%q>this link</a>.</p><p>If you did not request a reset, ignore this message.</p>`,
		html.EscapeString(username), m.actionURL("reset-password/confirm", tok))
	m.dispatch("reset_password", to, "Reset your password", body)
}

func (m *Mailer) actionURL(action, tok string) string {
	return fmt.Sprintf("%s/api/v1/auth/%s?token=%s", m.baseURL, action, tok)
}

// dispatch fires the send on its own goroutine. The caller gets no delivery
// signal.
func (m *Mailer) dispatch(template, to, subject, htmlBody string) {
	if m.sender == nil {
		middleware.Logger.Info("mail dispatch skipped, no sender configured",
			"template", template, "to", to)
		observability.MailDispatched.WithLabelValues(template, "skipped").Inc()
		return
	}

	go func() {
		if err := m.sender.Send(to, m.subjectTag+subject, htmlBody); err != nil {
			middleware.Logger.Error("mail dispatch failed",
				"template", template, "to", to, "error", err.Error())
			observability.MailDispatched.WithLabelValues(template, "error").Inc()
			return
		}
		observability.MailDispatched.WithLabelValues(template, "sent").Inc()
	}()
}

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns a Sender backed by Resend, or nil when no API key
// is configured.
func NewResendSender(apiKey, from string) *ResendSender {
	if apiKey == "" {
		return nil
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(to, subject, htmlBody string) error {
	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	return err
}
