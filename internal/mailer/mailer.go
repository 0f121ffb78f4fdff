// Package mailer sends motion-alert emails for newly ingested events.
// Failures here are policy-swallowed by the caller: an undelivered alert
// never fails or rolls back an ingestion.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"watchtower/internal/config"

	"github.com/wneessen/go-mail"
)

const sendTimeout = 15 * time.Second

// Mailer delivers a formatted alert for one captured image.
type Mailer interface {
	SendAlert(ctx context.Context, recipient, imageURL string, capturedAt time.Time) error
	Enabled() bool
}

// SMTPMailer sends alerts through a configured SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewMailer builds an SMTP mailer from configuration. When no SMTP host is
// configured a disabled mailer is returned and every send is a no-op.
func NewMailer(cfg config.Config) (Mailer, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	if host == "" {
		return &disabledMailer{}, nil
	}

	from := strings.TrimSpace(cfg.SMTPFrom)
	if from == "" {
		from = strings.TrimSpace(cfg.SMTPUsername)
	}
	if from == "" {
		return nil, errors.New("mailer: missing sender address (SMTP_FROM or SMTP_USERNAME)")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(sendTimeout),
	}
	if username := strings.TrimSpace(cfg.SMTPUsername); username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: create client: %w", err)
	}

	return &SMTPMailer{client: client, from: from}, nil
}

// Enabled reports whether alerts can actually be delivered.
func (m *SMTPMailer) Enabled() bool {
	return m != nil && m.client != nil
}

// SendAlert delivers one motion alert. The send is bounded by the client
// timeout and the passed context, whichever ends first.
func (m *SMTPMailer) SendAlert(ctx context.Context, recipient, imageURL string, capturedAt time.Time) error {
	if !m.Enabled() {
		return errors.New("mailer: not configured")
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return errors.New("mailer: empty recipient")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mailer: set sender: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("mailer: set recipient: %w", err)
	}
	msg.Subject("Motion Detected - Surveillance System Alert")
	msg.SetBodyString(mail.TypeTextHTML, alertBody(imageURL, capturedAt))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

func alertBody(imageURL string, capturedAt time.Time) string {
	return fmt.Sprintf(`<h2>Motion Detected!</h2>
<p>A new event has been logged in your surveillance system.</p>
<p><strong>Timestamp:</strong> %s</p>
<p><strong>Captured Image:</strong></p>
<img src="%s" alt="Captured Image" width="400">
<p>Click <a href="%s" target="_blank">here</a> to view the image.</p>`,
		capturedAt.Format(time.RFC1123), imageURL, imageURL)
}

type disabledMailer struct{}

func (disabledMailer) Enabled() bool { return false }

func (disabledMailer) SendAlert(context.Context, string, string, time.Time) error {
	return nil
}

var _ Mailer = (*SMTPMailer)(nil)
var _ Mailer = disabledMailer{}
