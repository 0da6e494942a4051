package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"CodeNews/internal/config"
	"CodeNews/internal/domain"
	"CodeNews/internal/ports"
)

const headlineSeparator = "---BREAK---"

const systemPrompt = `You are an editor preparing a weekly technology digest.
For the given article produce a short punchy headline (max 90 characters)
followed by the line ---BREAK--- and then a one-to-two paragraph summary in
plain prose. No lists, no emoji.`

// ChatGPTClient generates digest headlines and summaries via
// OpenAI-compatible chat completion APIs.
type ChatGPTClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Summarizer = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	return &ChatGPTClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Summarize asks the model for a headline and summary of one item.
func (c *ChatGPTClient) Summarize(ctx context.Context, item domain.Item) (string, string, error) {
	if c == nil || c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", "", fmt.Errorf("chatgpt client misconfigured")
	}

	user := fmt.Sprintf("Title: %s\n\nSummary: %s\n\nSource: %s", item.Title, item.Summary, item.URL)
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
		"max_tokens":  450,
		"temperature": 0.7,
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("summarize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", "", fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", "", fmt.Errorf("chatgpt returned no choices")
	}

	headline, summary := splitCompletion(completion.Choices[0].Message.Content, item.Title)
	return headline, summary, nil
}

func splitCompletion(content, fallbackTitle string) (string, string) {
	content = strings.TrimSpace(content)

	if strings.Contains(content, headlineSeparator) {
		parts := strings.SplitN(content, headlineSeparator, 2)
		headline := strings.TrimSpace(parts[0])
		summary := strings.TrimSpace(parts[1])
		if headline == "" {
			headline = fallbackTitle
		}
		return headline, summary
	}

	lines := strings.SplitN(content, "\n", 2)
	headline := strings.TrimSpace(lines[0])
	summary := ""
	if len(lines) > 1 {
		summary = strings.TrimSpace(lines[1])
	}
	if headline == "" {
		headline = fallbackTitle
	}
	return headline, summary
}
