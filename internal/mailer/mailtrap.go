package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paybridge.app/app/internal/config"
)

// Mailtrap sends through the Mailtrap HTTP API instead of SMTP.
type Mailtrap struct {
	apiURL string
	apiKey string
	http   *http.Client
}

type mailtrapPayload struct {
	From     mailtrapPerson   `json:"from"`
	To       []mailtrapPerson `json:"to"`
	Cc       []mailtrapPerson `json:"cc,omitempty"`
	Bcc      []mailtrapPerson `json:"bcc,omitempty"`
	Subject  string           `json:"subject"`
	Text     string           `json:"text,omitempty"`
	HTML     string           `json:"html,omitempty"`
	Category string           `json:"category,omitempty"`
}

type mailtrapPerson struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func NewMailtrap(cfg config.MailtrapConfig) *Mailtrap {
	return &Mailtrap{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIToken,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *Mailtrap) Send(ctx context.Context, e Email) error {
	if m.apiURL == "" || m.apiKey == "" {
		return fmt.Errorf("mailtrap credentials not configured")
	}
	if len(e.To) == 0 {
		return fmt.Errorf("mailer: at least one recipient required")
	}

	payload := mailtrapPayload{
		From:     mailtrapPerson{Email: e.From, Name: e.FromName},
		To:       people(e.To),
		Cc:       people(e.Cc),
		Bcc:      people(e.Bcc),
		Subject:  e.Subject,
		Text:     e.TextBody,
		HTML:     e.HTMLBody,
		Category: "Transactional",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("mailtrap API error: %d", res.StatusCode)
	}
	return nil
}

func people(addrs []string) []mailtrapPerson {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]mailtrapPerson, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, mailtrapPerson{Email: a})
	}
	return out
}

// FromConfig picks the transport named by cfg.Mail.Driver.
func FromConfig(cfg *config.Config) Service {
	switch cfg.Mail.Driver {
	case "smtp":
		return NewSMTPMailer(cfg.SMTP)
	case "mailtrap":
		return NewMailtrap(cfg.Mailtrap)
	default:
		return Noop{}
	}
}
