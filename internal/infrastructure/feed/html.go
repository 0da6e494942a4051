package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"CodeNews/internal/domain"
	"CodeNews/internal/scanner"
)

// HTMLScanner crawls listing pages of sites that publish no feed. The
// selectors come from the feed's options:
//
//	item:    selector for one entry block (required)
//	title:   selector for the title inside an entry (required)
//	link:    selector for the anchor inside an entry (defaults to "a")
//	summary: selector for the teaser text (optional)
//	date:    selector for the publication date (optional)
//	layout:  Go time layout for the date text (defaults to "2 Jan 2006")
type HTMLScanner struct {
	client *http.Client
}

// NewHTMLScanner wires an HTTP client; nil gets a default with timeout.
func NewHTMLScanner(client *http.Client) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan fetches the listing page and extracts entries per the configured
// selectors, newest first as they appear on the page.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	itemSel := req.Options["item"]
	titleSel := req.Options["title"]
	if itemSel == "" || titleSel == "" {
		return nil, fmt.Errorf("feed %s: html scanner needs item and title selectors", req.FeedName)
	}

	linkSel := req.Options["link"]
	if linkSel == "" {
		linkSel = "a"
	}
	layout := req.Options["layout"]
	if layout == "" {
		layout = "2 Jan 2006"
	}

	doc, err := h.fetchDocument(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", req.FeedName, err)
	}

	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	base, _ := url.Parse(req.URL)
	var items []domain.Item
	doc.Find(itemSel).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(items) >= maxItems {
			return false
		}

		title := strings.TrimSpace(sel.Find(titleSel).First().Text())
		href, _ := sel.Find(linkSel).First().Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" {
			return true
		}
		href = absoluteURL(base, href)

		item := domain.Item{
			ID:     href,
			Title:  title,
			URL:    href,
			Source: req.FeedName,
			State:  domain.StatePending,
		}

		if summarySel := req.Options["summary"]; summarySel != "" {
			item.Summary = strings.TrimSpace(sel.Find(summarySel).First().Text())
		}
		if dateSel := req.Options["date"]; dateSel != "" {
			dateText := strings.TrimSpace(sel.Find(dateSel).First().Text())
			if parsed, err := time.Parse(layout, dateText); err == nil {
				item.PublishedAt = parsed.UTC()
			}
		}

		if !item.PublishedAt.IsZero() && item.PublishedAt.Before(req.Since) {
			return true
		}

		items = append(items, item)
		return true
	})

	return items, nil
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "CodeNews/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func absoluteURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "http") || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
