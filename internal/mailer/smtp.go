package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"paybridge.app/app/internal/config"
)

var errNoStartTLS = errors.New("smtp: server does not offer STARTTLS")

// SMTPMailer delivers receipts over plain SMTP, implicit TLS ("tls") or
// STARTTLS ("starttls") depending on SMTP_TLS_MODE.
type SMTPMailer struct {
	cfg          config.SMTPConfig
	dialTimeout  time.Duration
	writeTimeout time.Duration
	hostname     string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	hostname := cfg.Host
	if hostname == "" {
		hostname = "local"
	}
	return &SMTPMailer{
		cfg:          cfg,
		dialTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
		hostname:     hostname,
	}
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: m.cfg.Host, InsecureSkipVerify: m.cfg.SkipVerifyTLS}
}

func (m *SMTPMailer) mode() string { return strings.ToLower(strings.TrimSpace(m.cfg.TLSMode)) }

func (m *SMTPMailer) Send(ctx context.Context, e Email) error {
	raw, err := buildMIMEMessage(e, m.hostname)
	if err != nil {
		return err
	}

	conn, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Quit()

	if err := m.negotiate(c); err != nil {
		return err
	}

	if err := c.Mail(e.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range e.AllRecipients() {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
	if _, err := w.Write([]byte(raw)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w", err)
	}
	return nil
}

func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(m.cfg.Host, m.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("smtp dial: %w", err)
	}
	if m.mode() != "tls" {
		return conn, nil
	}

	tlsConn := tls.Client(conn, m.tlsConfig())
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp tls handshake: %w", err)
	}
	return tlsConn, nil
}

// negotiate upgrades to STARTTLS when asked and authenticates when
// credentials are set. Local catchers like MailHog need neither.
func (m *SMTPMailer) negotiate(c *smtp.Client) error {
	if m.mode() == "starttls" {
		ok, _ := c.Extension("STARTTLS")
		if !ok {
			return errNoStartTLS
		}
		if err := c.StartTLS(m.tlsConfig()); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if m.cfg.User == "" || m.cfg.Pass == "" {
		return nil
	}
	if ok, _ := c.Extension("AUTH"); !ok {
		return nil
	}
	if err := c.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	return nil
}
