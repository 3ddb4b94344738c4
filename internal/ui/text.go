package ui

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText turns post or article HTML into readable paragraphs separated
// by blank lines. Text without markup is only whitespace-normalized.
func PlainText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "<") {
		return normalizeWhitespace(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return StripTags(raw)
	}
	doc.Find("head, script, style, noscript, iframe, nav, aside, footer").Remove()

	var paragraphs []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, pre, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		// nested blocks are picked up on their own
		if s.ParentsFiltered("p, pre, li, blockquote").Length() > 0 {
			return
		}
		text := s.Text()
		if goquery.NodeName(s) != "pre" {
			text = normalizeWhitespace(text)
		}
		if text = strings.TrimSpace(text); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return StripTags(raw)
	}
	return strings.Join(paragraphs, "\n\n")
}

// StripTags removes all markup.
func StripTags(raw string) string {
	return normalizeWhitespace(strict.Sanitize(raw))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
