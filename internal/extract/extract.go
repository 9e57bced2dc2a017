package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Document is the extracted (title, body) pair. Body is plain text with
// paragraphs separated by blank lines. An empty or too-short Body means the
// page carried nothing usable; the caller's acceptance gate decides.
type Document struct {
	Title     string
	Body      string
	CharCount int
}

// minLineChars is the noise filter for the whole-body fallback: lines under
// this length are almost always nav links, bylines, or menu fragments.
const minLineChars = 40

// contentSelectors are tried in priority order; the first that yields
// non-trivial text wins. Ordered from semantic containers to the class-name
// conventions of common publishing platforms.
var contentSelectors = []string{
	"article",
	"[role='article']",
	"main",
	".post-content",
	".article-content",
	".entry-content",
	".content",
	".post__body",
	".post-body",
	"[class*='article-body']",
	"[class*='post-body']",
	"[class*='entry-content']",
	"[class*='article-text']",
	"[data-testid='storyBody']", // Medium
	".essay",
	".post",
	".story",
}

// noiseSelectors are stripped from any matched container before text
// extraction.
const noiseSelectors = "nav, footer, aside, script, style, noscript, .ad-banner, .advertisement, .social-share, .related-posts, .comments"

// FromHTML extracts a title and readable body text from raw markup.
// sourceURL is only used as a last-resort title.
func FromHTML(input []byte, sourceURL string) Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Document{}
	}

	title := extractTitle(doc, sourceURL)

	doc.Find("script, style, noscript, meta, link").Remove()
	body := extractBody(doc)
	body = norm.NFC.String(body)

	return Document{Title: title, Body: body, CharCount: len(body)}
}

func extractTitle(doc *goquery.Document, sourceURL string) string {
	title := ""
	if og, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok {
		title = strings.TrimSpace(og)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = normalizeSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		if dt, ok := doc.Find("[data-title]").First().Attr("data-title"); ok {
			title = strings.TrimSpace(dt)
		}
	}
	if title == "" && sourceURL != "" {
		if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
			title = u.Host
		}
	}
	if title == "" {
		return "Article"
	}
	return cleanTitle(title)
}

// cleanTitle strips site-name suffixes ("Post | Medium", "Post - Some Blog").
func cleanTitle(title string) string {
	title = strings.ReplaceAll(title, " | Medium", "")
	title = strings.ReplaceAll(title, " - DEV Community", "")
	if i := strings.Index(title, " | "); i > 0 {
		title = title[:i]
	}
	if i := strings.Index(title, " - "); i > 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

func extractBody(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		pruned := sel.Clone()
		pruned.Find(noiseSelectors).Remove()
		if text := blockText(pruned); len(text) >= minLineChars {
			return text
		}
	}
	return fallbackBodyText(doc)
}

// blockText collects the container's block-level elements in document order.
func blockText(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		text := normalizeSpace(s.Text())
		if text == "" {
			return
		}
		parts = append(parts, text)
	})
	if len(parts) == 0 {
		// Container with bare text and no block markup at all.
		if text := normalizeSpace(sel.Text()); text != "" {
			return text
		}
	}
	return strings.Join(parts, "\n\n")
}

// fallbackBodyText walks the whole <body> when no structural selector
// matched, then applies a line-level noise filter.
func fallbackBodyText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 || len(body.Nodes) == 0 {
		return ""
	}
	pruned := body.Clone()
	pruned.Find("nav, footer, header, aside, form").Remove()

	var b strings.Builder
	for _, n := range pruned.Nodes {
		collectText(&b, n)
	}

	var kept []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = normalizeSpace(line)
		if len(line) < minLineChars {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n\n")
}

// collectText appends text nodes separated by newlines at block boundaries.
func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "iframe":
			return
		case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "br", "tr", "section":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
