package auth

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"journal-backend/internal/shared/telemetry"
)

// Mailer delivers login codes to users.
type Mailer interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

// SMTPMailer sends login codes over SMTP.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// SendLoginCode emails a one-time login code.
func (m *SMTPMailer) SendLoginCode(ctx context.Context, email, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject("Your journal login code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your login code is %s\n\nIt expires in 10 minutes. If you didn't request this, you can ignore this email.\n", code))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer logs codes instead of sending email. Dev only.
type LogMailer struct{}

// SendLoginCode logs the code.
func (LogMailer) SendLoginCode(ctx context.Context, email, code string) error {
	_ = ctx
	telemetry.Info("auth.login_code", map[string]any{"email": email, "code": code})
	return nil
}
