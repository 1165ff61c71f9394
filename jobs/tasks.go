package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSMSSend is the task type for outbound SMS delivery.
	TaskSMSSend = "sms:send"
)

// SMSPayload describes one outbound message fan-out.
type SMSPayload struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// NewSMSTask constructs an Asynq task for SMS delivery. Delivery is
// best-effort: a few retries, then the message is dropped.
func NewSMSTask(payload SMSPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSMSSend, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// SMSGateway posts messages to the bulk-SMS HTTP gateway.
type SMSGateway struct {
	logger *slog.Logger
	url    string
	sender string
	client *http.Client
}

// NewSMSGateway constructs the gateway client. An empty url disables
// delivery; handled tasks are then logged and acknowledged.
func NewSMSGateway(logger *slog.Logger, url, sender string) *SMSGateway {
	return &SMSGateway{
		logger: logger,
		url:    url,
		sender: sender,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// HandleSend processes TaskSMSSend tasks.
func (g *SMSGateway) HandleSend(ctx context.Context, t *asynq.Task) error {
	var payload SMSPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.Recipients) == 0 || payload.Message == "" {
		return asynq.SkipRetry
	}
	if g.url == "" {
		g.logger.Info("sms delivery disabled, dropping message",
			slog.Int("recipients", len(payload.Recipients)))
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"from":    g.sender,
		"to":      payload.Recipients,
		"message": payload.Message,
	})
	if err != nil {
		return asynq.SkipRetry
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return asynq.SkipRetry
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: status %d", resp.StatusCode)
	}
	g.logger.Info("sms delivered", slog.Int("recipients", len(payload.Recipients)))
	return nil
}
