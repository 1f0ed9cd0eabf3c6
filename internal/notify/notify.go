// Package notify delivers transactional email through a pluggable backend.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nuber/nuber/internal/config"
)

// Sentinel errors for mail delivery.
var (
	ErrNoRecipient = errors.New("message has no recipient")
	ErrNoSender    = errors.New("message has no sender address")
)

// Message is a single outbound HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

func (m Message) validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	if m.From == "" {
		return ErrNoSender
	}
	return nil
}

// Sender dispatches a message. Delivery is fire-and-forget: a nil error only
// means the backend accepted the message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the Sender selected by cfg.Backend.
func NewSender(cfg *config.MailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Backend {
	case config.MailBackendMailgun:
		return NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase, NewHTTPClient()), nil
	case config.MailBackendSMTP:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword), nil
	case config.MailBackendLog:
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}
