// Package view derives the grouped display structure from reader state.
// Everything here is a pure function of its inputs.
package view

import "github.com/idilsaglam/feedr/internal/model"

// DefaultLabel groups posts that carry no source at all.
const DefaultLabel = "Feed"

// Options tune the projection.
type Options struct {
	HideRead bool // drop posts whose link is marked read
}

// Group is the posts sharing one resolved label, in collection order.
type Group struct {
	Label string
	Posts []model.Post
}

// View is the ordered list of groups. Groups appear in the order their
// label first occurs in the post collection.
type View struct {
	Groups []Group
}

// Label resolves the group label of a post source: the name of the feed
// whose URL or name equals source, else source itself, else DefaultLabel.
func Label(feeds []model.Feed, source string) string {
	if source == "" {
		return DefaultLabel
	}
	if f, ok := match(feeds, source); ok {
		return f.DisplayName()
	}
	return source
}

func match(feeds []model.Feed, source string) (model.Feed, bool) {
	for _, f := range feeds {
		if f.URL == source || (f.FeedName != "" && f.FeedName == source) {
			return f, true
		}
	}
	return model.Feed{}, false
}

// Project groups posts by label. With HideRead set, read posts are left
// out and groups that end up empty are omitted. read is never modified.
func Project(feeds []model.Feed, posts []model.Post, read model.ReadState, opt Options) View {
	index := map[string]int{}
	var groups []Group
	for _, p := range posts {
		if opt.HideRead && read.Has(p.Link) {
			continue
		}
		label := Label(feeds, p.Source)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}
	return View{Groups: groups}
}

// Len is the number of posts across all groups.
func (v View) Len() int {
	n := 0
	for _, g := range v.Groups {
		n += len(g.Posts)
	}
	return n
}

// Group returns the group with label.
func (v View) Group(label string) (Group, bool) {
	for _, g := range v.Groups {
		if g.Label == label {
			return g, true
		}
	}
	return Group{}, false
}

// Labels returns the group labels in display order.
func (v View) Labels() []string {
	out := make([]string, len(v.Groups))
	for i, g := range v.Groups {
		out[i] = g.Label
	}
	return out
}

// Unread counts posts of g not in read.
func (g Group) Unread(read model.ReadState) int {
	n := 0
	for _, p := range g.Posts {
		if !read.Has(p.Link) {
			n++
		}
	}
	return n
}

// Unread counts unread posts across the view. Orphan read links do not
// count either way.
func (v View) Unread(read model.ReadState) int {
	n := 0
	for _, g := range v.Groups {
		n += g.Unread(read)
	}
	return n
}
