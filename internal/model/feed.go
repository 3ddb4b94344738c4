package model

// Feed is a subscribed content source. The server owns ID and FeedName;
// URL is the unique key.
type Feed struct {
	ID       int    `json:"id"`
	URL      string `json:"url"`
	FeedName string `json:"feed_name"`
}

// DisplayName returns the server-normalized name, or the URL when the
// server has not named the feed yet.
func (f Feed) DisplayName() string {
	if f.FeedName != "" {
		return f.FeedName
	}
	return f.URL
}

// Article is the readable version of a page as returned by /parse-article.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Byline  string `json:"byline"`
}
