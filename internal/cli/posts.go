package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/feedr/internal/model"
	"github.com/idilsaglam/feedr/internal/store"
	"github.com/idilsaglam/feedr/internal/ui"
	"github.com/idilsaglam/feedr/internal/view"
)

type postJSON struct {
	model.Post
	Read bool `json:"read"`
}

type groupJSON struct {
	Label string     `json:"label"`
	Posts []postJSON `json:"posts"`
}

func newPostsCmd(e *env) *cobra.Command {
	var (
		unread bool
		asJSON bool
		group  string
	)
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts grouped by feed",
		Long: `List posts grouped by feed, in server order.

Examples:
  feedr posts                  # every post
  feedr posts --unread         # hide posts already read
  feedr posts --group "Go Blog"
  feedr posts --json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return e.withStore(ctx, func(st *store.Store) error {
				if err := st.Reload(ctx); err != nil {
					return err
				}
				snap := st.Snapshot()
				v := view.Project(snap.Feeds, snap.Posts, snap.Read, view.Options{
					HideRead: unread || e.cfg.View.HideRead,
				})
				if group != "" {
					g, ok := v.Group(group)
					if !ok {
						return fmt.Errorf("no posts in group %q", group)
					}
					v = view.View{Groups: []view.Group{g}}
				}
				if asJSON {
					return e.writePostsJSON(v, snap.Read)
				}
				e.printPosts(v, snap)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&unread, "unread", false, "show unread posts only")
	f.BoolVar(&asJSON, "json", false, "output as JSON")
	f.StringVar(&group, "group", "", "show a single group by label")
	return cmd
}

func (e *env) writePostsJSON(v view.View, read model.ReadState) error {
	out := make([]groupJSON, 0, len(v.Groups))
	for _, g := range v.Groups {
		gj := groupJSON{Label: g.Label, Posts: make([]postJSON, 0, len(g.Posts))}
		for _, p := range g.Posts {
			gj.Posts = append(gj.Posts, postJSON{Post: p, Read: read.Has(p.Link)})
		}
		out = append(out, gj)
	}
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (e *env) printPosts(v view.View, snap store.Snapshot) {
	t := e.printer.Theme()

	total := v.Len()
	unread := v.Unread(snap.Read)
	header := fmt.Sprintf("%s  %s %d  %s %d",
		t.Title.Render("Posts"),
		t.Unread.Render(t.SymUnread), unread,
		t.Accent.Render("Total"), total,
	)
	if snap.FromCache {
		header += "  " + t.Muted.Render("(cached)")
	}

	lines := []string{header, t.Muted.Render(ui.ProgressBar(total-unread, total, 28)), ""}
	if total == 0 {
		lines = append(lines, t.Muted.Render("Nothing to read."))
	}
	for _, g := range v.Groups {
		lines = append(lines, t.Header.Render(g.Label))
		for _, p := range g.Posts {
			sym, style := t.Unread.Render(t.SymUnread), t.Title
			if snap.IsRead(p.Link) {
				sym, style = t.Read.Render(t.SymRead), t.Read
			}
			lines = append(lines, "  "+sym+" "+style.Render(p.Title))
			lines = append(lines, "    "+t.Muted.Render(p.Link))
		}
	}
	lines = append(lines, "", t.Muted.Render("Tip: mark one read with `feedr read <link>`"))
	fmt.Fprintln(e.stdout, t.Panel(lines))
}
