package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

const (
	embedColor    = 0x00ff00
	messageLimit  = 200
	titleLimit    = 256
	descLimit     = 4096
	fieldLimit    = 1024
	fieldKeyLimit = 256
)

// Webhook is a Discord webhook channel.
type Webhook struct {
	webhookURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     ports.Logger
	now        func() time.Time
}

var _ ports.Channel = (*Webhook)(nil)

// NewWebhook creates a new Discord webhook channel. ratePerSec bounds how
// fast consecutive embeds are posted.
func NewWebhook(webhookURL string, timeout time.Duration, ratePerSec float64, logger ports.Logger) *Webhook {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Webhook{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		now:        time.Now,
	}
}

// Name identifies the channel in logs and metrics.
func (w *Webhook) Name() string { return "discord" }

// Send posts one embed per new message, or a single summary embed.
func (w *Webhook) Send(ctx context.Context, delta model.Delta) error {
	if w.webhookURL == "" {
		return fmt.Errorf("webhook URL is empty")
	}

	content := "🔔 New contact form message!"
	if !delta.Detailed() {
		content = fmt.Sprintf("🔔 %d new contact form message(s)!", delta.Count)
	}

	notifications := delta.Notifications()
	for _, n := range notifications {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		if err := w.post(ctx, content, n); err != nil {
			return err
		}
	}

	w.logger.Info(ctx, "notification sent to discord", "embeds", len(notifications))
	return nil
}

func (w *Webhook) post(ctx context.Context, content string, notification model.Notification) error {
	embed := map[string]any{
		"title":     truncate(notification.Title, titleLimit),
		"color":     embedColor,
		"timestamp": w.now().UTC().Format(time.RFC3339),
	}
	if notification.Description != "" {
		embed["description"] = truncate(notification.Description, descLimit)
	}
	if fields := convertFields(notification.Fields); fields != nil {
		embed["fields"] = fields
	}

	payload := map[string]any{
		"content": content,
		"embeds":  []map[string]any{embed},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook returned status %d: %s", resp.StatusCode, string(data))
	}
	return nil
}

func convertFields(fields []model.NotificationField) []map[string]any {
	if len(fields) == 0 {
		return nil
	}

	result := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		limit := fieldLimit
		if field.Name == "Message" {
			limit = messageLimit
		}
		result = append(result, map[string]any{
			"name":   truncate(field.Name, fieldKeyLimit),
			"value":  truncate(field.Value, limit),
			"inline": field.Inline,
		})
	}

	return result
}

// truncate cuts value to limit runes, appending "..." when it was cut.
func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit]) + "..."
}
