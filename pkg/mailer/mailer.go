package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/logger"
)

// Mailer sends transactional email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail over plain SMTP with AUTH.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	logg *logger.Logger
}

// NewSMTPMailer validates the SMTP settings and returns a mailer.
func NewSMTPMailer(cfg config.SMTPConfig, logg *logger.Logger) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port == 0 {
		return nil, errors.New("smtp port is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &SMTPMailer{cfg: cfg, logg: logg}, nil
}

// Send delivers a plain-text message to a single recipient.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("recipient is required")
	}

	msg := buildMessage(m.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	if m.logg != nil {
		m.logg.Info(m.logg.WithFields(ctx, map[string]any{"to": to, "subject": subject}), "email sent")
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
