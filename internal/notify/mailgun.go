package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mailgun/mailgun-go/v4"
)

// MailgunSender sends mail through the Mailgun HTTP API.
type MailgunSender struct {
	mg *mailgun.MailgunImpl
}

// NewMailgunSender creates a sender for domain. An empty apiBase keeps the
// library default (US region).
func NewMailgunSender(domain, apiKey, apiBase string, client *http.Client) *MailgunSender {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	if client != nil {
		mg.SetClient(client)
	}
	return &MailgunSender{mg: mg}
}

// Send implements Sender.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	m := s.mg.NewMessage(msg.From, msg.Subject, "", msg.To)
	m.SetHtml(msg.HTML)

	if _, _, err := s.mg.Send(ctx, m); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
