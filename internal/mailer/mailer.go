// Package mailer sends transactional email (donor receipts) through SMTP or
// the Mailtrap HTTP API.
package mailer

import "context"

type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	From     string
	FromName string

	To  []string
	Cc  []string
	Bcc []string

	Subject  string
	TextBody string
	HTMLBody string

	// Extra headers, e.g. X-Order-ID.
	Headers map[string]string
}

// AllRecipients is the RCPT TO list: To, then Cc, then Bcc.
func (e Email) AllRecipients() []string {
	rcpts := append([]string{}, e.To...)
	rcpts = append(rcpts, e.Cc...)
	return append(rcpts, e.Bcc...)
}

// Noop drops every message. Used when MAIL_DRIVER=none.
type Noop struct{}

func (Noop) Send(context.Context, Email) error { return nil }
