package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/idilsaglam/feedr/internal/model"
)

// TokenSource returns the bearer token to send, or "" for none.
type TokenSource func() (string, error)

// Client is the HTTP Gateway.
type Client struct {
	base   string
	http   *http.Client
	token  TokenSource
	agent  string
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.token = ts } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

func WithUserAgent(ua string) Option { return func(c *Client) { c.agent = ua } }

// New returns a client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   http.DefaultClient,
		agent:  "feedr",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var (
	_ Gateway       = (*Client)(nil)
	_ ArticleParser = (*Client)(nil)
)

func (c *Client) ListFeeds(ctx context.Context) ([]model.Feed, error) {
	var feeds []model.Feed
	if err := c.do(ctx, http.MethodGet, "/feeds", nil, &feeds); err != nil {
		return nil, err
	}
	if feeds == nil {
		feeds = []model.Feed{}
	}
	return feeds, nil
}

func (c *Client) ListReadLinks(ctx context.Context) ([]string, error) {
	var links []string
	if err := c.do(ctx, http.MethodGet, "/read", nil, &links); err != nil {
		return nil, err
	}
	if links == nil {
		links = []string{}
	}
	return links, nil
}

func (c *Client) ListPosts(ctx context.Context) (model.PostsPage, error) {
	var page model.PostsPage
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &page); err != nil {
		return model.PostsPage{}, err
	}
	if page.Articles == nil {
		page.Articles = []model.Post{}
	}
	return page, nil
}

func (c *Client) Subscribe(ctx context.Context, feedURL, name string) error {
	body := map[string]string{"url": feedURL}
	if name != "" {
		body["name"] = name
	}
	return c.do(ctx, http.MethodPost, "/feeds", body, nil)
}

func (c *Client) Unsubscribe(ctx context.Context, feedURL string) error {
	return c.do(ctx, http.MethodDelete, "/feeds", map[string]string{"url": feedURL}, nil)
}

func (c *Client) MarkRead(ctx context.Context, link string) error {
	return c.do(ctx, http.MethodPost, "/read", map[string]string{"link": link}, nil)
}

func (c *Client) MarkUnread(ctx context.Context, link string) error {
	return c.do(ctx, http.MethodPost, "/unread", map[string]string{"link": link}, nil)
}

func (c *Client) TriggerRefresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/refresh", nil, nil)
}

func (c *Client) ParseArticle(ctx context.Context, pageURL string) (model.Article, error) {
	var a model.Article
	path := "/parse-article?url=" + url.QueryEscape(pageURL)
	if err := c.do(ctx, http.MethodGet, path, nil, &a); err != nil {
		return model.Article{}, err
	}
	return a, nil
}

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.agent)

	if c.token != nil {
		token, err := c.token()
		if err != nil {
			return fmt.Errorf("loading token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrMalformed, err)
	}
	return nil
}
