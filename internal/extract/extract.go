package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/urlutil"
)

// ErrNotHTML is returned for response bodies whose content type is not
// HTML. The engine still marks such URLs crawled (they will not be
// refetched) but records the parse failure.
var ErrNotHTML = errors.New("content is not HTML")

// htmlContentTypes are the media types the extractor accepts.
var htmlContentTypes = map[string]struct{}{
	"text/html":             {},
	"application/xhtml+xml": {},
	"":                      {}, // absent header: attempt the parse
}

// IsHTML reports whether a media type (lowercased, without parameters)
// is parseable HTML.
func IsHTML(contentType string) bool {
	_, ok := htmlContentTypes[contentType]
	return ok
}

// Extract parses an HTML body fetched from base and returns the page
// title, visible text, and the normalized outbound links. Script and
// style content is excluded from the text; links that are malformed,
// non-http(s), or point at binary resources are dropped silently.
func Extract(body []byte, contentType string, base *url.URL) (model.Page, error) {
	if !IsHTML(contentType) {
		return model.Page{}, fmt.Errorf("%w: %q", ErrNotHTML, contentType)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		// html.Parse recovers from almost anything; a failure here means
		// the reader broke, not the markup.
		return model.Page{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var page model.Page
	var text strings.Builder
	seen := make(map[string]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return // no text, no links
			case "title":
				if page.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					page.Title = collapseWhitespace(n.FirstChild.Data)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					link, err := urlutil.ResolveAndNormalize(base, href)
					if err == nil && urlutil.Crawlable(link) {
						if _, dup := seen[link]; !dup {
							seen[link] = struct{}{}
							page.Links = append(page.Links, link)
						}
					}
				}
			}
		case html.TextNode:
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(collapseWhitespace(trimmed))
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Text = text.String()
	return page, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
