package digest

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// RenderTelegraphHTML converts digest markdown to the HTML subset Telegraph
// accepts. Telegraph supports a, b, blockquote, br, code, em, h3, h4, hr,
// i, li, ol, p, pre, strong, u and ul but not h1/h2, so headings are
// demoted after rendering.
func RenderTelegraphHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}

	html := buf.String()
	replacer := strings.NewReplacer(
		"<h1>", "<h3>", "</h1>", "</h3>",
		"<h2>", "<h3>", "</h2>", "</h3>",
		"<h5>", "<h4>", "</h5>", "</h4>",
		"<h6>", "<h4>", "</h6>", "</h4>",
	)
	return replacer.Replace(html), nil
}
