package view

import "github.com/idilsaglam/feedr/internal/model"

// Row is one line of a flattened view: either a group header or a post.
type Row struct {
	Header bool
	Label  string      // group label, set on both kinds
	Post   *model.Post // nil for headers
}

// Flatten lays the view out as header and post rows, the shape list
// widgets want.
func (v View) Flatten() []Row {
	rows := make([]Row, 0, v.Len()+len(v.Groups))
	for gi := range v.Groups {
		g := &v.Groups[gi]
		rows = append(rows, Row{Header: true, Label: g.Label})
		for pi := range g.Posts {
			rows = append(rows, Row{Label: g.Label, Post: &g.Posts[pi]})
		}
	}
	return rows
}

// FeedURL finds the subscription a post belongs to, matching the same way
// Label does. ok is false for posts whose source matches no feed.
func FeedURL(feeds []model.Feed, p model.Post) (string, bool) {
	if p.Source == "" {
		return "", false
	}
	f, ok := match(feeds, p.Source)
	return f.URL, ok
}
