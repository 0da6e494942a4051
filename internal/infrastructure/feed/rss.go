package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"CodeNews/internal/domain"
	"CodeNews/internal/scanner"
)

const defaultMaxItems = 50

// RSSScanner fetches RSS 2.0 and Atom feeds over HTTP.
type RSSScanner struct {
	client *http.Client
}

// NewRSSScanner wires an HTTP client with a sane default timeout.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RSSScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan downloads the feed and returns entries published after req.Since.
// Entries without a parsable date are kept; freshness is enforced again by
// the pipeline.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Item, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("feed %s has no url", req.FeedName)
	}

	raw, err := s.fetch(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", req.FeedName, err)
	}

	entries, err := parseFeed(raw)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", req.FeedName, err)
	}

	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	if len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	items := make([]domain.Item, 0, len(entries))
	for _, entry := range entries {
		if entry.URL == "" {
			continue
		}
		if !entry.PublishedAt.IsZero() && entry.PublishedAt.Before(req.Since) {
			continue
		}

		id := entry.GUID
		if id == "" {
			id = entry.URL
		}

		items = append(items, domain.Item{
			ID:          id,
			Title:       entry.Title,
			Summary:     entry.Summary,
			URL:         entry.URL,
			Source:      req.FeedName,
			PublishedAt: entry.PublishedAt,
			State:       domain.StatePending,
		})
	}

	return items, nil
}

func (s *RSSScanner) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "CodeNews/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

type feedEntry struct {
	GUID        string
	Title       string
	Summary     string
	URL         string
	PublishedAt time.Time
}

type rssDocument struct {
	Channel struct {
		Items []struct {
			GUID        string `xml:"guid"`
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			PubDate     string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomDocument struct {
	Entries []struct {
		ID    string `xml:"id"`
		Title string `xml:"title"`
		Links []struct {
			Rel  string `xml:"rel,attr"`
			Href string `xml:"href,attr"`
		} `xml:"link"`
		Summary   string `xml:"summary"`
		Content   string `xml:"content"`
		Updated   string `xml:"updated"`
		Published string `xml:"published"`
	} `xml:"entry"`
}

func parseFeed(raw []byte) ([]feedEntry, error) {
	root, err := rootElement(raw)
	if err != nil {
		return nil, err
	}

	switch root {
	case "rss", "RDF":
		var doc rssDocument
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse rss: %w", err)
		}
		entries := make([]feedEntry, 0, len(doc.Channel.Items))
		for _, item := range doc.Channel.Items {
			entries = append(entries, feedEntry{
				GUID:        strings.TrimSpace(item.GUID),
				Title:       strings.TrimSpace(item.Title),
				Summary:     strings.TrimSpace(item.Description),
				URL:         strings.TrimSpace(item.Link),
				PublishedAt: parseFeedTime(item.PubDate),
			})
		}
		return entries, nil
	case "feed":
		var doc atomDocument
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse atom: %w", err)
		}
		entries := make([]feedEntry, 0, len(doc.Entries))
		for _, entry := range doc.Entries {
			link := ""
			for _, l := range entry.Links {
				if l.Rel == "" || l.Rel == "alternate" {
					link = l.Href
					break
				}
			}
			summary := entry.Summary
			if summary == "" {
				summary = entry.Content
			}
			published := entry.Published
			if published == "" {
				published = entry.Updated
			}
			entries = append(entries, feedEntry{
				GUID:        strings.TrimSpace(entry.ID),
				Title:       strings.TrimSpace(entry.Title),
				Summary:     strings.TrimSpace(summary),
				URL:         strings.TrimSpace(link),
				PublishedAt: parseFeedTime(published),
			})
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("unrecognized feed root element %q", root)
	}
}

func rootElement(raw []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(raw)))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return "", fmt.Errorf("no root element: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z",
}

func parseFeedTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range feedTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
