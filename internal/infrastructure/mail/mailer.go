package mail

import (
	"context"
	"fmt"
	"hoa-http-service/internal/infrastructure/config"
	Logger "hoa-http-service/pkg/logger"
	"sync"

	"gopkg.in/gomail.v2"
)

// Email is a rendered message ready for delivery
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers emails
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// NewMailer returns an SMTP mailer when mail is enabled, a log-only mailer otherwise
func NewMailer(cfg *config.Config) Mailer {
	if !cfg.MailEnabled {
		return &LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends through an SMTP relay
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPMailer builds an SMTP mailer from the SMTP_* settings
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.MailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// Send dials the relay and sends one email
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	if email.TextBody != "" {
		msg.SetBody("text/plain", email.TextBody)
		if email.HTMLBody != "" {
			msg.AddAlternative("text/html", email.HTMLBody)
		}
	} else {
		msg.SetBody("text/html", email.HTMLBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}
	return nil
}

// LogMailer only logs what would have been sent
type LogMailer struct{}

// Send logs the recipient and subject
func (m *LogMailer) Send(ctx context.Context, email Email) error {
	Logger.Info("mail disabled, not sending %q to %s", email.Subject, email.To)
	return nil
}

// RecordingMailer keeps every email in memory. Emails to addresses in
// FailFor return an error instead.
type RecordingMailer struct {
	mu      sync.Mutex
	Sent    []Email
	FailFor map[string]error
}

// NewRecordingMailer returns an empty RecordingMailer
func NewRecordingMailer() *RecordingMailer {
	return &RecordingMailer{FailFor: make(map[string]error)}
}

// Send records the email
func (m *RecordingMailer) Send(ctx context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailFor[email.To]; ok {
		return err
	}
	m.Sent = append(m.Sent, email)
	return nil
}

// SentTo returns the emails delivered to address
func (m *RecordingMailer) SentTo(address string) []Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Email
	for _, e := range m.Sent {
		if e.To == address {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many emails were delivered
func (m *RecordingMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
