// Package gatewaytest provides an in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"slices"
	"sync"

	"github.com/idilsaglam/feedr/internal/gateway"
	"github.com/idilsaglam/feedr/internal/model"
)

// Method names accepted by SetErr, SetHook and Count.
const (
	ListFeeds      = "ListFeeds"
	ListReadLinks  = "ListReadLinks"
	ListPosts      = "ListPosts"
	Subscribe      = "Subscribe"
	Unsubscribe    = "Unsubscribe"
	MarkRead       = "MarkRead"
	MarkUnread     = "MarkUnread"
	TriggerRefresh = "TriggerRefresh"
)

// Fake behaves like a tiny feed server: mutations change the data that the
// list calls return. Errors and blocking hooks can be injected per method.
type Fake struct {
	mu     sync.Mutex
	feeds  []model.Feed
	read   []string
	page   model.PostsPage
	nextID int
	calls  map[string]int
	errs   map[string]error
	hooks  map[string]func(ctx context.Context)
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		nextID: 1,
		calls:  map[string]int{},
		errs:   map[string]error{},
		hooks:  map[string]func(ctx context.Context){},
	}
}

// Seed replaces the server-side data.
func (f *Fake) Seed(feeds []model.Feed, read []string, posts []model.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = slices.Clone(feeds)
	f.read = slices.Clone(read)
	f.page = model.PostsPage{FromCache: true, Articles: slices.Clone(posts)}
	for _, fd := range feeds {
		if fd.ID >= f.nextID {
			f.nextID = fd.ID + 1
		}
	}
}

// SetPosts replaces only the post collection.
func (f *Fake) SetPosts(posts []model.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page.Articles = slices.Clone(posts)
}

// SetErr makes method fail with err. A nil err clears the failure.
func (f *Fake) SetErr(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// SetHook runs fn at the start of every call to method, outside the lock,
// so a test can block a call until it decides to release it.
func (f *Fake) SetHook(method string, fn func(ctx context.Context)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[method] = fn
}

// Count returns how many times method was called.
func (f *Fake) Count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// ServerRead returns the server's view of read links.
func (f *Fake) ServerRead() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.read)
}

func (f *Fake) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	hook := f.hooks[method]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[method]
}

func (f *Fake) ListFeeds(ctx context.Context) ([]model.Feed, error) {
	if err := f.enter(ctx, ListFeeds); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.feeds)
	if out == nil {
		out = []model.Feed{}
	}
	return out, nil
}

func (f *Fake) ListReadLinks(ctx context.Context) ([]string, error) {
	if err := f.enter(ctx, ListReadLinks); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.read)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (f *Fake) ListPosts(ctx context.Context) (model.PostsPage, error) {
	if err := f.enter(ctx, ListPosts); err != nil {
		return model.PostsPage{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	page := model.PostsPage{FromCache: f.page.FromCache, Articles: slices.Clone(f.page.Articles)}
	if page.Articles == nil {
		page.Articles = []model.Post{}
	}
	return page, nil
}

func (f *Fake) Subscribe(ctx context.Context, url, name string) error {
	if err := f.enter(ctx, Subscribe); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fd := range f.feeds {
		if fd.URL == url {
			return nil
		}
	}
	if name == "" {
		name = url
	}
	f.feeds = append(f.feeds, model.Feed{ID: f.nextID, URL: url, FeedName: name})
	f.nextID++
	return nil
}

func (f *Fake) Unsubscribe(ctx context.Context, url string) error {
	if err := f.enter(ctx, Unsubscribe); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = slices.DeleteFunc(f.feeds, func(fd model.Feed) bool { return fd.URL == url })
	f.page.Articles = slices.DeleteFunc(f.page.Articles, func(p model.Post) bool { return p.Source == url })
	return nil
}

func (f *Fake) MarkRead(ctx context.Context, link string) error {
	if err := f.enter(ctx, MarkRead); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.read, link) {
		f.read = append(f.read, link)
	}
	return nil
}

func (f *Fake) MarkUnread(ctx context.Context, link string) error {
	if err := f.enter(ctx, MarkUnread); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = slices.DeleteFunc(f.read, func(l string) bool { return l == link })
	return nil
}

func (f *Fake) TriggerRefresh(ctx context.Context) error {
	return f.enter(ctx, TriggerRefresh)
}
