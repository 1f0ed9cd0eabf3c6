package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nuber/nuber/internal/auth"
	"github.com/nuber/nuber/internal/config"
	"github.com/nuber/nuber/internal/model"
	"github.com/nuber/nuber/internal/notify"
)

type sendVerificationOptions struct {
	email     string
	firstName string
	lastName  string
	key       string
	backend   string
}

func newSendVerificationCmd() *cobra.Command {
	opts := &sendVerificationOptions{}

	cmd := &cobra.Command{
		Use:   "send-verification",
		Short: "Send a verification email with the configured mail backend",
		Long: `Render and send the verification email without going through the API.
The backend is read from MAIL_BACKEND and friends; --backend overrides it.
No verification record is stored, so the key is only useful for testing
the template and delivery.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.email == "" {
				return errors.New("--email is required")
			}

			cfg, err := config.LoadMail()
			if err != nil {
				return err
			}
			if opts.backend != "" {
				cfg.Backend = opts.backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			key := opts.key
			if key == "" {
				if key, err = auth.GenerateVerificationKey(); err != nil {
					return err
				}
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
			sender, err := notify.NewSender(cfg, logger)
			if err != nil {
				return err
			}

			user := &model.User{Email: opts.email, FirstName: opts.firstName, LastName: opts.lastName}
			if err := notify.NewMailer(sender, cfg).SendVerificationEmail(cmd.Context(), user, key); err != nil {
				return fmt.Errorf("send verification email: %w", err)
			}

			return printSent(cmd.OutOrStdout(), cfg, user, key)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.email, "email", "", "Recipient address (MAIL_TO still takes precedence)")
	f.StringVar(&opts.firstName, "first-name", "", "Recipient first name used in the subject")
	f.StringVar(&opts.lastName, "last-name", "", "Recipient last name used in the subject")
	f.StringVar(&opts.key, "key", "", "Verification key; random when empty")
	f.StringVar(&opts.backend, "backend", "", "Override MAIL_BACKEND (mailgun, smtp or log)")
	return cmd
}

func printSent(w io.Writer, cfg *config.MailConfig, user *model.User, key string) error {
	to := user.Email
	if cfg.To != "" {
		to = cfg.To
	}
	_, err := fmt.Fprintf(w, "sent via %s to %s\nlink: %s\n",
		cfg.Backend, to, notify.VerificationLink(cfg.VerificationBaseURL, key))
	return err
}
