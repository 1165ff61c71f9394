// Package notify adapts the background SMS queue to the Notifier port
// the domain services depend on. Enqueue failures are logged and
// swallowed: notifications never fail a business mutation.
package notify

import (
	"context"
	"log/slog"

	"github.com/tavern-pos/tavern/jobs"
)

// SMSNotifier queues messages for best-effort delivery.
type SMSNotifier struct {
	logger *slog.Logger
	client *jobs.Client
}

// NewSMSNotifier constructs the notifier.
func NewSMSNotifier(logger *slog.Logger, client *jobs.Client) *SMSNotifier {
	return &SMSNotifier{logger: logger, client: client}
}

// Notify queues one message for the given recipients.
func (n *SMSNotifier) Notify(ctx context.Context, message string, recipients []string) {
	if n.client == nil || message == "" || len(recipients) == 0 {
		return
	}
	if _, err := n.client.EnqueueSMS(ctx, jobs.SMSPayload{Message: message, Recipients: recipients}); err != nil {
		n.logger.Warn("sms enqueue failed", slog.Any("error", err), slog.Int("recipients", len(recipients)))
	}
}

// LogNotifier writes messages to the log instead of sending them. Used
// in test mode and when no queue is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs the log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(ctx context.Context, message string, recipients []string) {
	n.logger.Info("notification", slog.String("message", message), slog.Int("recipients", len(recipients)))
}
