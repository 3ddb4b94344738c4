// Package store owns the reader state: subscribed feeds, posts, read links,
// the selected post and the refresh guard. Every mutation goes through a
// Store method and is reconciled against the server with a reload.
//
// State is published as immutable Snapshots. A snapshot is replaced in one
// step, so a reader never sees feeds from one reload and posts from
// another.
//
// Feed changes are not optimistic: AddFeed and RemoveFeed wait for the
// server and then reload, because the server may rename or normalize the
// feed. Read-state changes are optimistic and settled in the background by
// a ReadPolicy.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/feedr/internal/gateway"
	"github.com/idilsaglam/feedr/internal/model"
)

// ErrEmptyURL is returned by AddFeed and RemoveFeed for a blank URL.
var ErrEmptyURL = errors.New("feed url is empty")

// Store is the reconciliation engine. Create one with New at startup and
// Close it at shutdown; it is safe for concurrent use.
type Store struct {
	gw       gateway.Gateway
	logger   *slog.Logger
	notifier Notifier
	policy   ReadPolicy
	ordering ReloadOrdering

	mu        sync.Mutex
	snap      Snapshot
	issued    uint64 // reload sequence numbers handed out
	applied   uint64 // sequence of the reload currently published
	listeners map[int]func(Snapshot)
	nextID    int
	gens      map[string]uint64 // bumped by every mark of a link

	bg tasks
}

// New returns an empty store backed by gw. Call Reload to fill it.
func New(gw gateway.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:        gw,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:    Optimistic{},
		ordering:  LastResolved,
		listeners: map[int]func(Snapshot){},
		gens:      map[string]uint64{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	s.bg.logger = s.logger
	s.snap.Read = model.NewReadState()
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// OnChange registers fn to be called with every newly published snapshot.
// fn runs on the goroutine that made the change, outside the store lock.
func (s *Store) OnChange(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn to the current snapshot under the lock. When fn reports
// a change the result is published and listeners are told.
func (s *Store) update(fn func(cur Snapshot) (Snapshot, bool)) {
	s.mu.Lock()
	next, changed := fn(s.snap)
	if !changed {
		s.mu.Unlock()
		return
	}
	next.Version = s.snap.Version + 1
	s.snap = next
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	for _, l := range fns {
		l(next)
	}
}

// Reload fetches feeds, read links and posts concurrently and publishes
// them together. If any call fails nothing is replaced and the error is
// returned.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	var (
		feeds []model.Feed
		links []string
		page  model.PostsPage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if feeds, err = s.gw.ListFeeds(gctx); err != nil {
			return fmt.Errorf("list feeds: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if links, err = s.gw.ListReadLinks(gctx); err != nil {
			return fmt.Errorf("list read links: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if page, err = s.gw.ListPosts(gctx); err != nil {
			return fmt.Errorf("list posts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Debug("reload failed", "seq", seq, "error", err)
		return fmt.Errorf("reload: %w", err)
	}

	read := model.NewReadState(links...)
	posts := page.Articles
	if posts == nil {
		posts = []model.Post{}
	}
	if feeds == nil {
		feeds = []model.Feed{}
	}

	published := false
	s.update(func(cur Snapshot) (Snapshot, bool) {
		if s.ordering == LatestIssued && seq < s.applied {
			return cur, false
		}
		s.applied = seq
		cur.Feeds = feeds
		cur.Posts = posts
		cur.Read = read
		cur.FromCache = page.FromCache
		cur.Selected = reselect(cur.Selected, posts)
		published = true
		return cur, true
	})

	if !published {
		s.logger.Debug("stale reload discarded", "seq", seq)
		return nil
	}
	s.logger.Debug("reloaded",
		"seq", seq,
		"feeds", len(feeds),
		"posts", len(posts),
		"read", read.Len(),
	)
	return nil
}

// AddFeed subscribes to url and reloads. When the subscription fails the
// error is returned and no reload happens.
func (s *Store) AddFeed(ctx context.Context, url, name string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	if err := s.gw.Subscribe(ctx, url, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("subscribe %s: %w", url, err)
	}
	s.logger.Info("subscribed", "url", url)
	return s.Reload(ctx)
}

// RemoveFeed unsubscribes from url and reloads, with the same failure rule
// as AddFeed.
func (s *Store) RemoveFeed(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	if err := s.gw.Unsubscribe(ctx, url); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", url, err)
	}
	s.logger.Info("unsubscribed", "url", url)
	return s.Reload(ctx)
}

// MarkRead marks link read locally right away and tells the server in the
// background.
func (s *Store) MarkRead(link string) { s.mark(link, true) }

// MarkUnread is the inverse of MarkRead.
func (s *Store) MarkUnread(link string) { s.mark(link, false) }

func (s *Store) mark(link string, read bool) {
	change := ReadChange{Link: link, Read: read}
	// update runs fn under the lock, so gens is safe to touch there.
	s.update(func(cur Snapshot) (Snapshot, bool) {
		s.gens[link]++
		change.Gen = s.gens[link]
		if cur.Read.Has(link) == read {
			return cur, false
		}
		cur.Read = setRead(cur.Read, link, read)
		return cur, true
	})

	name := "mark-unread"
	push := func(ctx context.Context) error { return s.gw.MarkUnread(ctx, link) }
	if read {
		name = "mark-read"
		push = func(ctx context.Context) error { return s.gw.MarkRead(ctx, link) }
	}

	// Fire and forget: the caller never sees the outcome, the task runner
	// logs it.
	s.bg.Go(context.Background(), name, func(ctx context.Context) error {
		return s.policy.Settle(ctx, change, push, func() { s.revert(change) })
	})
}

// revert undoes change only while it is still the latest mark of its link.
// Any later MarkRead or MarkUnread, even one that ends in the same
// membership, supersedes it.
func (s *Store) revert(change ReadChange) {
	s.update(func(cur Snapshot) (Snapshot, bool) {
		if s.gens[change.Link] != change.Gen || cur.Read.Has(change.Link) != change.Read {
			return cur, false
		}
		cur.Read = setRead(cur.Read, change.Link, !change.Read)
		return cur, true
	})
}

func setRead(r model.ReadState, link string, read bool) model.ReadState {
	if read {
		return r.With(link)
	}
	return r.Without(link)
}

// Refresh asks the server to re-fetch every feed and then reloads. Only one
// refresh runs at a time: a call made while one is in flight returns false
// without touching the network. Failures go to the Notifier and are not
// returned.
func (s *Store) Refresh(ctx context.Context) bool {
	started := false
	s.update(func(cur Snapshot) (Snapshot, bool) {
		if cur.Refreshing {
			return cur, false
		}
		cur.Refreshing = true
		started = true
		return cur, true
	})
	if !started {
		s.logger.Debug("refresh already running")
		return false
	}
	defer s.update(func(cur Snapshot) (Snapshot, bool) {
		cur.Refreshing = false
		return cur, true
	})

	var errs []error
	if err := s.gw.TriggerRefresh(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trigger refresh: %w", err))
	}
	// reload even when the trigger failed: the server may have refreshed
	// some feeds before giving up
	if err := s.Reload(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		s.notifier.Notify("Failed to refresh feeds", err)
	}
	return true
}

// Select makes post the selected one. A post from the current collection
// is matched by link so the selection points into the snapshot.
func (s *Store) Select(post *model.Post) {
	s.update(func(cur Snapshot) (Snapshot, bool) {
		if post == nil {
			cur.Selected = nil
			return cur, true
		}
		if p, ok := cur.Post(post.Link); ok {
			cur.Selected = p
			return cur, true
		}
		cp := *post
		cur.Selected = &cp
		return cur, true
	})
}

// SelectLink selects the post with link and reports whether it exists.
func (s *Store) SelectLink(link string) bool {
	found := false
	s.update(func(cur Snapshot) (Snapshot, bool) {
		p, ok := cur.Post(link)
		if !ok {
			return cur, false
		}
		cur.Selected = p
		found = true
		return cur, true
	})
	return found
}

// Close waits for background read-state pushes to finish, or for ctx.
func (s *Store) Close(ctx context.Context) error {
	if err := s.bg.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for background tasks: %w", err)
	}
	return nil
}
