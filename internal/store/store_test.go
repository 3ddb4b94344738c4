package store

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/feedr/internal/gateway/gatewaytest"
	"github.com/idilsaglam/feedr/internal/model"
)

var errBoom = errors.New("boom")

func feedA() model.Feed {
	return model.Feed{ID: 1, URL: "http://a.com/rss", FeedName: "A"}
}

func post(title, link, source string) model.Post {
	return model.Post{Title: title, Link: link, Source: source}
}

// recordingNotifier collects Notify calls.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
	errs []error
}

func (n *recordingNotifier) Notify(message string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, message)
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func newStore(t *testing.T, fake *gatewaytest.Fake, opts ...Option) *Store {
	t.Helper()
	s := New(fake, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func closeStore(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))
}

func TestNew_EmptySnapshot(t *testing.T) {
	s := newStore(t, gatewaytest.New())
	snap := s.Snapshot()
	assert.Empty(t, snap.Feeds)
	assert.Empty(t, snap.Posts)
	assert.Nil(t, snap.Selected)
	assert.False(t, snap.Refreshing)
	assert.Equal(t, 0, snap.Read.Len())
}

func TestReload_Empty(t *testing.T) {
	fake := gatewaytest.New()
	s := newStore(t, fake)

	require.NoError(t, s.Reload(context.Background()))

	snap := s.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.Feeds)
	assert.Empty(t, snap.Posts)
	assert.Equal(t, 1, fake.Count(gatewaytest.ListFeeds))
	assert.Equal(t, 1, fake.Count(gatewaytest.ListReadLinks))
	assert.Equal(t, 1, fake.Count(gatewaytest.ListPosts))
}

func TestReload_SelectsFirstPost(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed(
		[]model.Feed{feedA()},
		[]string{"http://a.com/orphan"},
		[]model.Post{post("T1", "http://a.com/1", "http://a.com/rss")},
	)
	s := newStore(t, fake)

	require.NoError(t, s.Reload(context.Background()))

	snap := s.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "T1", snap.Selected.Title)
	assert.Len(t, snap.Feeds, 1)
	assert.True(t, snap.FromCache)
	assert.True(t, snap.IsRead("http://a.com/orphan"))
}

func TestReload_KeepsSelection(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed(nil, nil, []model.Post{
		post("T1", "l1", "s"),
		post("T2", "l2", "s"),
	})
	s := newStore(t, fake)
	require.NoError(t, s.Reload(context.Background()))
	require.True(t, s.SelectLink("l2"))

	updated := post("T2 updated", "l2", "s")
	fake.SetPosts([]model.Post{post("T0", "l0", "s"), updated})
	require.NoError(t, s.Reload(context.Background()))

	snap := s.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "l2", snap.Selected.Link)
	assert.Equal(t, "T2 updated", snap.Selected.Title, "selection points at the freshly loaded post")
	assert.Same(t, &snap.Posts[1], snap.Selected)
}

func TestReload_SelectionFallsBack(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed(nil, nil, []model.Post{post("T1", "l1", "s"), post("T2", "l2", "s")})
	s := newStore(t, fake)
	require.NoError(t, s.Reload(context.Background()))
	require.True(t, s.SelectLink("l2"))

	fake.SetPosts([]model.Post{post("T3", "l3", "s"), post("T1", "l1", "s")})
	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, "l3", s.Snapshot().Selected.Link)

	fake.SetPosts(nil)
	require.NoError(t, s.Reload(context.Background()))
	assert.Nil(t, s.Snapshot().Selected)
}

func TestReload_SelectionAlwaysInCollection(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fake := gatewaytest.New()
	s := newStore(t, fake)
	links := []string{"a", "b", "c", "d", "e"}

	for i := 0; i < 50; i++ {
		var posts []model.Post
		for _, l := range links {
			if rng.Intn(2) == 0 {
				posts = append(posts, post(l, l, "s"))
			}
		}
		fake.SetPosts(posts)
		s.SelectLink(links[rng.Intn(len(links))])
		require.NoError(t, s.Reload(context.Background()))

		snap := s.Snapshot()
		if len(snap.Posts) == 0 {
			assert.Nil(t, snap.Selected)
			continue
		}
		require.NotNil(t, snap.Selected)
		_, ok := snap.Post(snap.Selected.Link)
		assert.True(t, ok, "selection %q not in loaded posts", snap.Selected.Link)
	}
}

func TestReload_FailureReplacesNothing(t *testing.T) {
	for _, method := range []string{gatewaytest.ListFeeds, gatewaytest.ListReadLinks, gatewaytest.ListPosts} {
		t.Run(method, func(t *testing.T) {
			fake := gatewaytest.New()
			fake.Seed([]model.Feed{feedA()}, []string{"l1"}, []model.Post{post("T1", "l1", "http://a.com/rss")})
			s := newStore(t, fake)
			require.NoError(t, s.Reload(context.Background()))
			before := s.Snapshot()

			fake.Seed(nil, nil, nil)
			fake.SetErr(method, errBoom)

			err := s.Reload(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, errBoom)

			after := s.Snapshot()
			assert.Equal(t, before.Version, after.Version)
			assert.Equal(t, before.Feeds, after.Feeds)
			assert.Equal(t, before.Posts, after.Posts)
			assert.True(t, after.IsRead("l1"))
		})
	}
}

func TestAddFeed_Reloads(t *testing.T) {
	fake := gatewaytest.New()
	s := newStore(t, fake)

	require.NoError(t, s.AddFeed(context.Background(), " http://a.com/rss ", ""))

	assert.Equal(t, 1, fake.Count(gatewaytest.Subscribe))
	assert.Equal(t, 1, fake.Count(gatewaytest.ListFeeds))
	f, ok := s.Snapshot().Feed("http://a.com/rss")
	require.True(t, ok)
	assert.Equal(t, 1, f.ID, "server-assigned id is visible after reload")
}

func TestAddFeed_FailureSkipsReload(t *testing.T) {
	fake := gatewaytest.New()
	fake.SetErr(gatewaytest.Subscribe, errBoom)
	s := newStore(t, fake)

	err := s.AddFeed(context.Background(), "http://a.com/rss", "A")
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, fake.Count(gatewaytest.ListFeeds))
	assert.Empty(t, s.Snapshot().Feeds, "no optimistic insert")
}

func TestAddFeed_EmptyURL(t *testing.T) {
	fake := gatewaytest.New()
	s := newStore(t, fake)

	assert.ErrorIs(t, s.AddFeed(context.Background(), "  ", "x"), ErrEmptyURL)
	assert.ErrorIs(t, s.RemoveFeed(context.Background(), ""), ErrEmptyURL)
	assert.Equal(t, 0, fake.Count(gatewaytest.Subscribe))
	assert.Equal(t, 0, fake.Count(gatewaytest.Unsubscribe))
}

func TestRemoveFeed_Reloads(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed([]model.Feed{feedA()}, nil, []model.Post{post("T1", "http://a.com/1", "http://a.com/rss")})
	s := newStore(t, fake)
	require.NoError(t, s.Reload(context.Background()))

	require.NoError(t, s.RemoveFeed(context.Background(), "http://a.com/rss"))

	snap := s.Snapshot()
	assert.Empty(t, snap.Feeds)
	assert.Empty(t, snap.Posts)
	assert.Nil(t, snap.Selected)
}

func TestRemoveFeed_FailureSkipsReload(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed([]model.Feed{feedA()}, []string{"http://a.com/1"}, []model.Post{post("T1", "http://a.com/1", "http://a.com/rss")})
	s := newStore(t, fake)
	require.NoError(t, s.Reload(context.Background()))
	before := s.Snapshot()

	fake.SetErr(gatewaytest.Unsubscribe, errBoom)
	err := s.RemoveFeed(context.Background(), "http://a.com/rss")
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, 1, fake.Count(gatewaytest.ListFeeds), "reload must not run")
	after := s.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Feeds, after.Feeds)
	assert.Equal(t, before.Posts, after.Posts)
	assert.True(t, after.IsRead("http://a.com/1"))
}

func TestMarkRead_LocalFirst(t *testing.T) {
	fake := gatewaytest.New()
	release := make(chan struct{})
	fake.SetHook(gatewaytest.MarkRead, func(context.Context) { <-release })
	s := newStore(t, fake)

	s.MarkRead("l1")
	assert.True(t, s.Snapshot().IsRead("l1"), "local state changes before the server answers")
	assert.Empty(t, fake.ServerRead())

	close(release)
	closeStore(t, s)
	assert.Equal(t, []string{"l1"}, fake.ServerRead())
}

func TestMarkUnread(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed(nil, []string{"l1"}, nil)
	s := newStore(t, fake)
	require.NoError(t, s.Reload(context.Background()))

	s.MarkUnread("l1")
	assert.False(t, s.Snapshot().IsRead("l1"))

	closeStore(t, s)
	assert.Empty(t, fake.ServerRead())
	assert.Equal(t, 1, fake.Count(gatewaytest.MarkUnread))
}

func TestMarkRead_EveryCallHitsServer(t *testing.T) {
	fake := gatewaytest.New()
	s := newStore(t, fake)

	s.MarkRead("l1")
	v := s.Snapshot().Version
	s.MarkRead("l1")
	s.MarkRead("l1")
	assert.Equal(t, v, s.Snapshot().Version, "repeated marks do not republish")

	closeStore(t, s)
	assert.Equal(t, 3, fake.Count(gatewaytest.MarkRead))
}

func TestMarkRead_LastCallWins(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := newStore(t, gatewaytest.New())

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(8)
		last := false
		for j := 0; j < n; j++ {
			if rng.Intn(2) == 0 {
				s.MarkRead("l")
				last = true
			} else {
				s.MarkUnread("l")
				last = false
			}
		}
		assert.Equal(t, last, s.Snapshot().IsRead("l"))
	}
}

func TestMarkRead_OptimisticKeepsOnFailure(t *testing.T) {
	fake := gatewaytest.New()
	fake.SetErr(gatewaytest.MarkRead, errBoom)
	s := newStore(t, fake)

	s.MarkRead("l1")
	closeStore(t, s)

	assert.True(t, s.Snapshot().IsRead("l1"), "no rollback")
	assert.Empty(t, fake.ServerRead())
}

func TestMarkRead_RollbackOnFailure(t *testing.T) {
	fake := gatewaytest.New()
	fake.SetErr(gatewaytest.MarkRead, errBoom)
	s := newStore(t, fake, WithReadPolicy(Rollback{}))

	s.MarkRead("l1")
	closeStore(t, s)

	assert.False(t, s.Snapshot().IsRead("l1"))
}

func TestMarkRead_RollbackSkipsSupersededChange(t *testing.T) {
	fake := gatewaytest.New()
	fake.SetErr(gatewaytest.MarkRead, errBoom)
	release := make(chan struct{})
	fake.SetHook(gatewaytest.MarkRead, func(context.Context) { <-release })
	s := newStore(t, fake, WithReadPolicy(Rollback{}))

	s.MarkRead("l1")
	s.MarkUnread("l1")
	close(release)
	closeStore(t, s)

	assert.False(t, s.Snapshot().IsRead("l1"))
}

// lateFirstMarkRead fails the first MarkRead after the test releases it.
// Later calls go to the fake.
type lateFirstMarkRead struct {
	*gatewaytest.Fake

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *lateFirstMarkRead) MarkRead(ctx context.Context, link string) error {
	first := false
	g.once.Do(func() { first = true })
	if !first {
		return g.Fake.MarkRead(ctx, link)
	}
	close(g.entered)
	<-g.release
	return errBoom
}

func TestMarkRead_RollbackSkipsChangeSupersededBySameMembership(t *testing.T) {
	gw := &lateFirstMarkRead{
		Fake:    gatewaytest.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(gw, WithReadPolicy(Rollback{}))

	s.MarkRead("l1")
	<-gw.entered
	s.MarkUnread("l1")
	s.MarkRead("l1")
	require.True(t, s.Snapshot().IsRead("l1"))

	close(gw.release)
	closeStore(t, s)

	// the first push failed, but the last mark went through and must stand
	assert.True(t, s.Snapshot().IsRead("l1"))
}

func TestRollback_RevertsOnlyOnError(t *testing.T) {
	reverted := false
	err := Rollback{}.Settle(context.Background(), ReadChange{Link: "l", Read: true},
		func(context.Context) error { return nil },
		func() { reverted = true })
	require.NoError(t, err)
	assert.False(t, reverted)

	err = Rollback{}.Settle(context.Background(), ReadChange{Link: "l", Read: true},
		func(context.Context) error { return errBoom },
		func() { reverted = true })
	require.ErrorIs(t, err, errBoom)
	assert.True(t, reverted)
}

func TestRefresh_Guard(t *testing.T) {
	fake := gatewaytest.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	fake.SetHook(gatewaytest.TriggerRefresh, func(context.Context) {
		close(entered)
		<-release
	})
	s := newStore(t, fake)

	done := make(chan bool)
	go func() { done <- s.Refresh(context.Background()) }()
	<-entered

	assert.True(t, s.Snapshot().Refreshing)
	v := s.Snapshot().Version
	assert.False(t, s.Refresh(context.Background()), "second refresh is a no-op")
	assert.Equal(t, v, s.Snapshot().Version)

	close(release)
	assert.True(t, <-done)
	assert.Equal(t, 1, fake.Count(gatewaytest.TriggerRefresh))
	assert.Equal(t, 1, fake.Count(gatewaytest.ListPosts))
	assert.False(t, s.Snapshot().Refreshing)
}

func TestRefresh_TriggerFailureStillReloads(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed(nil, nil, []model.Post{post("T1", "l1", "s")})
	fake.SetErr(gatewaytest.TriggerRefresh, errBoom)
	n := &recordingNotifier{}
	s := newStore(t, fake, WithNotifier(n))

	assert.True(t, s.Refresh(context.Background()))

	assert.Equal(t, 1, fake.Count(gatewaytest.ListPosts))
	assert.Len(t, s.Snapshot().Posts, 1)
	require.Equal(t, 1, n.count())
	assert.ErrorIs(t, n.errs[0], errBoom)
	assert.False(t, s.Snapshot().Refreshing)
}

func TestRefresh_ReloadFailureNotifies(t *testing.T) {
	fake := gatewaytest.New()
	fake.SetErr(gatewaytest.ListFeeds, errBoom)
	n := &recordingNotifier{}
	s := newStore(t, fake, WithNotifier(n))

	assert.True(t, s.Refresh(context.Background()))
	assert.Equal(t, 1, n.count())
	assert.Equal(t, "Failed to refresh feeds", n.msgs[0])
	assert.False(t, s.Snapshot().Refreshing, "guard is cleared after a failure")

	fake.SetErr(gatewaytest.ListFeeds, nil)
	assert.True(t, s.Refresh(context.Background()))
	assert.Equal(t, 1, n.count())
}

// orderedPosts hands out a different page to each ListPosts call and lets
// the test decide when each call returns.
type orderedPosts struct {
	*gatewaytest.Fake

	mu      sync.Mutex
	calls   int
	entered []chan struct{}
	release []chan model.PostsPage
}

func newOrderedPosts(n int) *orderedPosts {
	o := &orderedPosts{Fake: gatewaytest.New()}
	for i := 0; i < n; i++ {
		o.entered = append(o.entered, make(chan struct{}))
		o.release = append(o.release, make(chan model.PostsPage))
	}
	return o
}

func (o *orderedPosts) ListPosts(ctx context.Context) (model.PostsPage, error) {
	o.mu.Lock()
	i := o.calls
	o.calls++
	o.mu.Unlock()
	close(o.entered[i])
	return <-o.release[i], nil
}

func runOverlappingReloads(t *testing.T, ordering ReloadOrdering) Snapshot {
	t.Helper()
	gw := newOrderedPosts(2)
	s := New(gw, WithReloadOrdering(ordering))

	first := make(chan error)
	go func() { first <- s.Reload(context.Background()) }()
	<-gw.entered[0]

	second := make(chan error)
	go func() { second <- s.Reload(context.Background()) }()
	<-gw.entered[1]

	gw.release[1] <- model.PostsPage{Articles: []model.Post{post("new", "new", "s")}}
	require.NoError(t, <-second)
	gw.release[0] <- model.PostsPage{Articles: []model.Post{post("old", "old", "s")}}
	require.NoError(t, <-first)

	return s.Snapshot()
}

func TestReload_LastResolvedWins(t *testing.T) {
	snap := runOverlappingReloads(t, LastResolved)
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, "old", snap.Posts[0].Link, "the reload that resolved last is published")
}

func TestReload_LatestIssuedWins(t *testing.T) {
	snap := runOverlappingReloads(t, LatestIssued)
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, "new", snap.Posts[0].Link, "a stale reload is discarded")
}

func TestOnChange(t *testing.T) {
	s := newStore(t, gatewaytest.New())

	var got []uint64
	cancel := s.OnChange(func(snap Snapshot) { got = append(got, snap.Version) })

	s.MarkRead("a")
	s.MarkRead("b")
	cancel()
	s.MarkRead("c")

	assert.Equal(t, []uint64{1, 2}, got)
}

func TestSelect(t *testing.T) {
	fake := gatewaytest.New()
	fake.Seed(nil, nil, []model.Post{post("T1", "l1", "s"), post("T2", "l2", "s")})
	s := newStore(t, fake)
	require.NoError(t, s.Reload(context.Background()))

	p2 := model.Post{Link: "l2"}
	s.Select(&p2)
	snap := s.Snapshot()
	assert.Same(t, &snap.Posts[1], snap.Selected)
	assert.False(t, snap.IsRead("l2"), "selecting does not mark read")

	s.Select(nil)
	assert.Nil(t, s.Snapshot().Selected)

	assert.False(t, s.SelectLink("missing"))
	assert.Nil(t, s.Snapshot().Selected)
}

func TestClose_WaitsForTasks(t *testing.T) {
	fake := gatewaytest.New()
	release := make(chan struct{})
	fake.SetHook(gatewaytest.MarkRead, func(context.Context) { <-release })
	s := New(fake)

	s.MarkRead("l1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(ctx), context.DeadlineExceeded)

	close(release)
	closeStore(t, s)
	assert.Equal(t, []string{"l1"}, fake.ServerRead())
}

func TestParseOptions(t *testing.T) {
	p, err := ParseReadPolicy("rollback")
	require.NoError(t, err)
	assert.IsType(t, Rollback{}, p)
	_, err = ParseReadPolicy("eventually")
	assert.Error(t, err)

	o, err := ParseReloadOrdering("latest-issued")
	require.NoError(t, err)
	assert.Equal(t, LatestIssued, o)
	assert.Equal(t, "latest-issued", o.String())
	_, err = ParseReloadOrdering("random")
	assert.Error(t, err)
}
