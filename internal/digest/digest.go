// Package digest turns a curated item selection into a publishable
// document: a markdown body with a table of contents and per-item
// sections, plus the restricted HTML flavor Telegraph accepts.
package digest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"CodeNews/internal/domain"
)

// Headline is the per-item rendering input, typically produced by the
// summarizer; when empty the item's own title and summary are used.
type Headline struct {
	Title   string
	Summary string
}

// Document is a fully built digest ready for publication.
type Document struct {
	Title    string
	Markdown string
	HTML     string
	ItemIDs  []string
}

var (
	slugKeep     = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Build assembles the digest document for the given selection. Ordering of
// items is preserved from the curator. headlines may be nil or sparse.
func Build(now time.Time, items []domain.Item, headlines map[string]Headline) (Document, error) {
	if len(items) == 0 {
		return Document{}, fmt.Errorf("no items to build a digest from")
	}

	doc := Document{Title: titleFor(now)}

	var md strings.Builder
	md.WriteString("## Contents\n\n")
	for i, item := range items {
		h := headlineFor(item, headlines)
		md.WriteString(fmt.Sprintf("%d. [%s](#%s)\n", i+1, h.Title, Slugify(h.Title)))
	}
	md.WriteString("\n---\n\n")

	for _, item := range items {
		h := headlineFor(item, headlines)
		md.WriteString(fmt.Sprintf("### %s\n\n", h.Title))
		if h.Summary != "" {
			md.WriteString(h.Summary + "\n\n")
		}
		md.WriteString(fmt.Sprintf("**Source:** [%s](%s)\n\n---\n\n", item.Source, item.URL))
		doc.ItemIDs = append(doc.ItemIDs, item.ID)
	}

	md.WriteString("## About\n\n")
	md.WriteString("This digest is generated automatically from the week's highest-rated items. ")
	md.WriteString("Follow the source links for full articles.\n")

	doc.Markdown = md.String()

	html, err := RenderTelegraphHTML(doc.Markdown)
	if err != nil {
		return Document{}, fmt.Errorf("render digest html: %w", err)
	}
	doc.HTML = html

	return doc, nil
}

// Slugify converts a headline into a URL-friendly anchor.
func Slugify(text string) string {
	text = strings.ToLower(text)
	text = slugKeep.ReplaceAllString(text, "")
	text = slugCollapse.ReplaceAllString(text, "-")
	text = strings.Trim(text, "-")
	if len(text) > 50 {
		text = text[:50]
	}
	return text
}

func titleFor(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("Code Report — Week %d, %d", week, year)
}

func headlineFor(item domain.Item, headlines map[string]Headline) Headline {
	if h, ok := headlines[item.ID]; ok && h.Title != "" {
		return h
	}
	return Headline{Title: item.Title, Summary: item.Summary}
}
