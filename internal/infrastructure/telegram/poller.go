package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CodeNews/internal/domain"
)

const defaultAPIBase = "https://api.telegram.org"

// FeedbackFunc consumes one parsed feedback event.
type FeedbackFunc func(ctx context.Context, event domain.FeedbackEvent) error

// Poller long-polls the bot API for presses of the inline feedback buttons
// the Notifier attaches to messages, and turns their payloads into
// feedback events. Each poll advances the update offset, so Telegram never
// redelivers a processed press.
type Poller struct {
	baseURL  string
	botToken string
	client   *http.Client
	handle   FeedbackFunc
	logger   *slog.Logger
	offset   int64
}

// NewPoller wires the bot token and the feedback sink.
func NewPoller(botToken string, handle FeedbackFunc, logger *slog.Logger) *Poller {
	return &Poller{
		baseURL:  defaultAPIBase,
		botToken: botToken,
		client:   &http.Client{Timeout: 40 * time.Second},
		handle:   handle,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. Poll failures back off and
// retry instead of terminating the loop.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.warn("feedback poll failed", "error", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	if p.botToken == "" || p.handle == nil {
		return fmt.Errorf("feedback poller misconfigured")
	}

	q := url.Values{}
	q.Set("timeout", "25")
	q.Set("allowed_updates", `["callback_query"]`)
	if p.offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", p.offset))
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", p.baseURL, p.botToken, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	var envelope struct {
		OK     bool        `json:"ok"`
		Result []botUpdate `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode updates: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram rejected getUpdates")
	}

	for _, u := range envelope.Result {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
		if u.CallbackQuery == nil {
			continue
		}

		event, err := ParseCallback(u.CallbackQuery.Data)
		if err != nil {
			p.warn("callback ignored", "error", err)
			p.acknowledge(ctx, u.CallbackQuery.ID)
			continue
		}
		if u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Date > 0 {
			event.OccurredAt = time.Unix(u.CallbackQuery.Message.Date, 0).UTC()
		} else {
			event.OccurredAt = time.Now().UTC()
		}

		if err := p.handle(ctx, event); err != nil {
			p.warn("feedback not applied", "item", event.ItemID, "error", err)
		}
		p.acknowledge(ctx, u.CallbackQuery.ID)
	}

	return nil
}

type botUpdate struct {
	UpdateID      int64 `json:"update_id"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			Date int64 `json:"date"`
		} `json:"message"`
	} `json:"callback_query"`
}

// ParseCallback translates an inline-button payload ("positive_<id>" or
// "negative_<id>") into a feedback event without a timestamp.
func ParseCallback(data string) (domain.FeedbackEvent, error) {
	var signal domain.Signal
	var itemID string
	switch {
	case strings.HasPrefix(data, "positive_"):
		signal = domain.SignalPositive
		itemID = strings.TrimPrefix(data, "positive_")
	case strings.HasPrefix(data, "negative_"):
		signal = domain.SignalNegative
		itemID = strings.TrimPrefix(data, "negative_")
	default:
		return domain.FeedbackEvent{}, fmt.Errorf("unrecognized callback payload %q", data)
	}
	if itemID == "" {
		return domain.FeedbackEvent{}, fmt.Errorf("callback payload %q carries no item id", data)
	}
	return domain.FeedbackEvent{ItemID: itemID, Signal: signal}, nil
}

// acknowledge clears the button spinner; failures only affect UX.
func (p *Poller) acknowledge(ctx context.Context, callbackID string) {
	form := url.Values{}
	form.Set("callback_query_id", callbackID)

	endpoint := fmt.Sprintf("%s/bot%s/answerCallbackQuery", p.baseURL, p.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		p.warn("callback not acknowledged", "error", err)
		return
	}
	resp.Body.Close()
}

func (p *Poller) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
