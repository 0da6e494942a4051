package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"CodeNews/internal/domain"
	"CodeNews/internal/ports"
)

// Notifier sends item notifications to a Telegram chat via bot API. Each
// message carries inline feedback buttons whose callback payloads
// ("positive_<id>" / "negative_<id>") the surrounding bot translates into
// feedback events.
type Notifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// NotifyItem posts a compact plain-text message with feedback buttons.
func (n *Notifier) NotifyItem(ctx context.Context, item domain.Item) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	text := fmt.Sprintf("%s | %s\n\n%s", item.Source, item.Title, item.URL)
	payload := map[string]any{
		"chat_id":                  n.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
		"reply_markup": map[string]any{
			"inline_keyboard": [][]map[string]string{{
				{"text": "👍 Interesting", "callback_data": "positive_" + item.ID},
				{"text": "👎 Not for me", "callback_data": "negative_" + item.ID},
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
