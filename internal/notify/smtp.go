// Package notify delivers customer notifications.
package notify

import (
	"context"
	"net"
	"net/smtp"
	"strings"

	"github.com/go-faster/errors"

	domain "github.com/xenking/kart-checkout/internal/domain/notify"
)

var _ domain.Notifier = (*SMTPSender)(nil)

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender sends plain-text email through an SMTP relay.
type SMTPSender struct {
	cfg      SMTPConfig
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender validates cfg and returns a sender. Authentication is only
// used when a username is set.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address is required")
	}

	s := &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s, nil
}

// Send delivers the message. net/smtp has no context support, so ctx is only
// checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, recipient, subject, body string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.ContainsAny(recipient, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return false, errors.New("header contains line break")
	}

	msg := []byte(
		"From: " + s.cfg.From + "\r\n" +
			"To: " + recipient + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n" +
			"\r\n" +
			body + "\r\n",
	)

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := s.sendMail(addr, s.auth, s.cfg.From, []string{recipient}, msg); err != nil {
		return false, errors.Wrap(err, "smtp send")
	}
	return true, nil
}
