package digest

import (
	"strings"
	"testing"
	"time"

	"CodeNews/internal/domain"
)

func sampleItems() []domain.Item {
	return []domain.Item{
		{ID: "1", Title: "Compilers Got Faster", Summary: "Details inside.", Source: "hackernews", URL: "https://example.com/1"},
		{ID: "2", Title: "Kubernetes 2.0 Ships", Summary: "Big release.", Source: "lobsters", URL: "https://example.com/2"},
	}
}

func TestBuildDocument(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 6, 0, 0, 0, time.UTC)
	doc, err := Build(now, sampleItems(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.HasPrefix(doc.Title, "Code Report — Week 35") {
		t.Fatalf("unexpected title: %s", doc.Title)
	}
	if len(doc.ItemIDs) != 2 || doc.ItemIDs[0] != "1" {
		t.Fatalf("unexpected item ids: %v", doc.ItemIDs)
	}
	if !strings.Contains(doc.Markdown, "[Compilers Got Faster](#compilers-got-faster)") {
		t.Fatalf("table of contents missing anchor link:\n%s", doc.Markdown)
	}
	if !strings.Contains(doc.Markdown, "**Source:** [hackernews](https://example.com/1)") {
		t.Fatalf("source link missing:\n%s", doc.Markdown)
	}
}

func TestBuildUsesHeadlinesWhenPresent(t *testing.T) {
	t.Parallel()

	headlines := map[string]Headline{
		"1": {Title: "Faster Compilers Everywhere", Summary: "A short editorial take."},
	}

	doc, err := Build(time.Now(), sampleItems(), headlines)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.Contains(doc.Markdown, "### Faster Compilers Everywhere") {
		t.Fatalf("headline not used:\n%s", doc.Markdown)
	}
	if !strings.Contains(doc.Markdown, "### Kubernetes 2.0 Ships") {
		t.Fatalf("fallback to item title missing:\n%s", doc.Markdown)
	}
}

func TestBuildEmptySelection(t *testing.T) {
	t.Parallel()

	if _, err := Build(time.Now(), nil, nil); err == nil {
		t.Fatal("expected error for empty selection")
	}
}

func TestRenderTelegraphHTMLDemotesHeadings(t *testing.T) {
	t.Parallel()

	html, err := RenderTelegraphHTML("# Top\n\n## Section\n\n### Entry\n\ntext here\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if strings.Contains(html, "<h1>") || strings.Contains(html, "<h2>") {
		t.Fatalf("telegraph does not accept h1/h2:\n%s", html)
	}
	if !strings.Contains(html, "<h3>") {
		t.Fatalf("expected h3 headings:\n%s", html)
	}
	if !strings.Contains(html, "<p>text here</p>") {
		t.Fatalf("expected paragraph:\n%s", html)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Compilers Got Faster":      "compilers-got-faster",
		"What's new? (2026 recap)":  "whats-new-2026-recap",
		"  spaced   out   title   ": "spaced-out-title",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
