package notify

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/nuber/nuber/internal/config"
	"github.com/nuber/nuber/internal/model"
)

const verificationSubject = "Hello! %s, please verify your email"

var verificationBody = template.Must(template.New("verification").Parse(
	`Verify your email by clicking <a href="{{.Link}}">here</a>`,
))

// VerificationLink returns the URL a user opens to confirm key.
func VerificationLink(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/verification/" + url.PathEscape(key) + "/"
}

// VerificationEmail renders the subject and HTML body of a verification email.
func VerificationEmail(fullName, key, baseURL string) (subject, body string, err error) {
	var b strings.Builder
	if err := verificationBody.Execute(&b, struct{ Link string }{VerificationLink(baseURL, key)}); err != nil {
		return "", "", fmt.Errorf("render verification email: %w", err)
	}
	return fmt.Sprintf(verificationSubject, fullName), b.String(), nil
}

// Mailer composes application emails and hands them to a Sender.
type Mailer struct {
	sender  Sender
	from    string
	to      string
	baseURL string
}

// NewMailer creates a Mailer. When cfg.To is set every message goes there
// instead of to the user.
func NewMailer(sender Sender, cfg *config.MailConfig) *Mailer {
	return &Mailer{
		sender:  sender,
		from:    cfg.From,
		to:      cfg.To,
		baseURL: cfg.VerificationBaseURL,
	}
}

// SendVerificationEmail emails key to user.
func (m *Mailer) SendVerificationEmail(ctx context.Context, user *model.User, key string) error {
	subject, body, err := VerificationEmail(user.FullName(), key, m.baseURL)
	if err != nil {
		return err
	}

	to := m.to
	if to == "" {
		to = user.Email
	}

	return m.sender.Send(ctx, Message{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    body,
	})
}
