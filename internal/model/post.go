package model

import (
	"strings"
	"time"
)

// Post is one entry of a feed. Link is its identity.
type Post struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Source      string     `json:"source"`
	PubDate     string     `json:"pubdate"`
	Enclosure   *Enclosure `json:"enclosure,omitempty"`
}

// Enclosure is an attached media file (podcast episode, image...).
type Enclosure struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Length string `json:"length"`
}

// PostsPage is the /posts payload.
type PostsPage struct {
	FromCache bool   `json:"fromCache"`
	Articles  []Post `json:"articles"`
}

// Body returns the full content, or the description when the feed only
// ships a summary.
func (p Post) Body() string {
	if strings.TrimSpace(p.Content) != "" {
		return p.Content
	}
	return p.Description
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Published parses PubDate. Feeds are sloppy about dates, so a few layouts
// are tried before giving up.
func (p Post) Published() (time.Time, bool) {
	s := strings.TrimSpace(p.PubDate)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
