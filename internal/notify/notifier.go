package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Recipient is a notification target. Either channel may be absent; absent
// channels are skipped.
type Recipient struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (r Recipient) Empty() bool {
	return strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == ""
}

// Notifier delivers a message over whatever channels the recipient has.
// Concrete email/SMS transports live outside this module.
type Notifier interface {
	Notify(ctx context.Context, to Recipient, subject, emailHTML, smsText string) error
}

// LogNotifier writes notifications to the log instead of a real channel.
// It stands in for the production transport in local runs and tests.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, to Recipient, subject, _ string, smsText string) error {
	if to.Email != "" {
		n.logger.Info("email notification", "to", to.Email, "subject", subject)
	}
	if to.Phone != "" {
		n.logger.Info("sms notification", "to", to.Phone, "text", smsText)
	}
	return nil
}
