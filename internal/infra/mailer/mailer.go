package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Sender delivers one HTML email and returns the Message-ID it was sent with.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := messageID(m.from)
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", id)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		slog.Error("❌ SMTP error", "to", to, "err", err)
		return "", fmt.Errorf("send mail: %w", err)
	}
	return id, nil
}

// LogMailer prints messages instead of sending them. Used when no SMTP host
// is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, html string) (string, error) {
	id := messageID("localhost")
	slog.Info("📨 Mail (not sent, SMTP disabled)", "to", to, "subject", subject, "message_id", id, "bytes", len(html))
	return id, nil
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.Trim(from[at+1:], "> ")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
