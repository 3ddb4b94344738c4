package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/feedr/internal/model"
	"github.com/idilsaglam/feedr/internal/ui"
	"github.com/idilsaglam/feedr/internal/view"
)

// rowItem adapts a view.Row to bubbles/list.Item.
type rowItem struct {
	view.Row
	read     bool
	selected bool
	unread   int // header rows only
	total    int
}

func (r rowItem) Title() string {
	if r.Header {
		return r.Label
	}
	return r.Post.Title
}

func (r rowItem) Description() string { return "" }

func (r rowItem) FilterValue() string {
	if r.Header {
		return r.Label
	}
	return r.Post.Title + " " + r.Label
}

func (r rowItem) post() (model.Post, bool) {
	if r.Header || r.Post == nil {
		return model.Post{}, false
	}
	return *r.Post, true
}

// rowDelegate renders one line per row.
type rowDelegate struct {
	theme ui.Theme
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(rowItem)
	if !ok {
		return
	}
	t := d.theme

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(t.SymCursor)
	}

	var line string
	if r.Header {
		line = t.Header.Render(r.Label) + " " + t.Muted.Render(fmt.Sprintf("%d/%d", r.unread, r.total))
	} else {
		title := strings.TrimSpace(r.Post.Title)
		if title == "" {
			title = r.Post.Link
		}
		sym, style := t.Unread.Render(t.SymUnread), t.Title
		if r.read {
			sym, style = t.Read.Render(t.SymRead), t.Read
		}
		if r.selected {
			style = style.Underline(true)
		}
		line = "  " + sym + " " + style.Render(title)
	}
	fmt.Fprintln(w, prefix+line)
}

// buildRows flattens the projection into list items.
func buildRows(v view.View, read model.ReadState, selected *model.Post) []list.Item {
	counts := make(map[string][2]int, len(v.Groups))
	for _, g := range v.Groups {
		counts[g.Label] = [2]int{g.Unread(read), len(g.Posts)}
	}

	rows := v.Flatten()
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		it := rowItem{Row: r}
		if r.Header {
			c := counts[r.Label]
			it.unread, it.total = c[0], c[1]
		} else {
			it.read = read.Has(r.Post.Link)
			it.selected = selected != nil && selected.Link == r.Post.Link
		}
		items = append(items, it)
	}
	return items
}
