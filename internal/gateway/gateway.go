// Package gateway translates reader intents into calls against the feed
// server. It keeps no state: no retries, no caching.
package gateway

import (
	"context"

	"github.com/idilsaglam/feedr/internal/model"
)

// Gateway is everything the store needs from the server.
type Gateway interface {
	ListFeeds(ctx context.Context) ([]model.Feed, error)
	ListReadLinks(ctx context.Context) ([]string, error)
	ListPosts(ctx context.Context) (model.PostsPage, error)
	Subscribe(ctx context.Context, url, name string) error
	Unsubscribe(ctx context.Context, url string) error
	MarkRead(ctx context.Context, link string) error
	MarkUnread(ctx context.Context, link string) error
	TriggerRefresh(ctx context.Context) error
}

// ArticleParser fetches a readable version of a page. Only the terminal
// reader uses it.
type ArticleParser interface {
	ParseArticle(ctx context.Context, url string) (model.Article, error)
}
