package notify

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the logger instead of delivering them.
// Bodies are logged at debug level only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "mail_logged", "to", msg.To, "subject", msg.Subject)
	s.logger.DebugContext(ctx, "mail_body", "to", msg.To, "html", msg.HTML)
	return nil
}
