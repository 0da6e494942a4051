package telegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CodeNews/internal/ports"
)

const defaultBaseURL = "https://api.telegra.ph"

// Publisher uploads rendered digests as Telegraph pages. An anonymous
// account is created on first publish; the access token is reused for the
// process lifetime.
type Publisher struct {
	baseURL     string
	shortName   string
	authorName  string
	accessToken string
	client      *http.Client
}

var _ ports.DigestPublisher = (*Publisher)(nil)

// NewPublisher configures the Telegraph account identity.
func NewPublisher(shortName, authorName string) *Publisher {
	return &Publisher{
		baseURL:    defaultBaseURL,
		shortName:  shortName,
		authorName: authorName,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Publish creates the page and returns its public URL.
func (p *Publisher) Publish(ctx context.Context, title, htmlContent string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("telegraph publisher misconfigured")
	}

	if p.accessToken == "" {
		token, err := p.createAccount(ctx)
		if err != nil {
			return "", fmt.Errorf("create telegraph account: %w", err)
		}
		p.accessToken = token
	}

	form := url.Values{}
	form.Set("access_token", p.accessToken)
	form.Set("title", title)
	form.Set("author_name", p.authorName)
	form.Set("content", htmlToNodes(htmlContent))
	form.Set("return_content", "false")

	var result struct {
		Path string `json:"path"`
	}
	if err := p.post(ctx, "/createPage", form, &result); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}

	return "https://telegra.ph/" + result.Path, nil
}

func (p *Publisher) createAccount(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("short_name", p.shortName)
	form.Set("author_name", p.authorName)

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := p.post(ctx, "/createAccount", form, &result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("telegraph returned no access token")
	}
	return result.AccessToken, nil
}

func (p *Publisher) post(ctx context.Context, path string, form url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegraph error: %s", resp.Status)
	}

	var envelope struct {
		OK     bool            `json:"ok"`
		Error  string          `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegraph error: %s", envelope.Error)
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// htmlToNodes wraps the HTML body as a single-element Telegraph content
// array. Telegraph parses the inner html of the node itself.
func htmlToNodes(htmlContent string) string {
	nodes := []map[string]any{{
		"tag":      "div",
		"children": []string{htmlContent},
	}}
	raw, _ := json.Marshal(nodes)
	return string(raw)
}
