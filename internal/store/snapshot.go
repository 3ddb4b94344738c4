package store

import "github.com/idilsaglam/feedr/internal/model"

// Snapshot is one consistent state of the reader. Snapshots are replaced
// whole and never modified after they are published, so callers may keep
// and read them without locking.
type Snapshot struct {
	Feeds      []model.Feed
	Posts      []model.Post
	Read       model.ReadState
	Selected   *model.Post // nil means nothing selected
	Refreshing bool
	FromCache  bool

	// Version increases with every published snapshot.
	Version uint64
}

// IsRead reports whether link is marked read in this snapshot.
func (s Snapshot) IsRead(link string) bool { return s.Read.Has(link) }

// Post returns the first post with link. Links are expected to be unique;
// on collision the earliest post in load order wins.
func (s Snapshot) Post(link string) (*model.Post, bool) {
	for i := range s.Posts {
		if s.Posts[i].Link == link {
			return &s.Posts[i], true
		}
	}
	return nil, false
}

// Feed returns the feed subscribed at url.
func (s Snapshot) Feed(url string) (model.Feed, bool) {
	for _, f := range s.Feeds {
		if f.URL == url {
			return f, true
		}
	}
	return model.Feed{}, false
}

// reselect applies the selection rule after a reload: keep the previous
// selection when its link survived, else fall back to the first post.
func reselect(prev *model.Post, posts []model.Post) *model.Post {
	if len(posts) == 0 {
		return nil
	}
	if prev != nil {
		for i := range posts {
			if posts[i].Link == prev.Link {
				return &posts[i]
			}
		}
	}
	return &posts[0]
}
