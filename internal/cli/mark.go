package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/feedr/internal/store"
)

// newMarkCmd builds `read` (read=true) or `unread`.
func newMarkCmd(e *env, read bool) *cobra.Command {
	use, short := "read <link>", "Mark a post read"
	if !read {
		use, short = "unread <link>", "Mark a post unread"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			link := args[0]
			ctx := cmd.Context()
			// the exit code reports the server's answer, so a refused push
			// must not stay applied whatever read_policy says
			st := e.newStore(e.client(), store.WithReadPolicy(store.Rollback{}))
			if err := st.Reload(ctx); err != nil {
				return err
			}
			if _, ok := st.Snapshot().Post(link); !ok {
				e.logger.Warn("link is not among the current posts", "link", link)
			}
			if read {
				st.MarkRead(link)
			} else {
				st.MarkUnread(link)
			}
			// wait for the push; a refused one has been rolled back
			if err := st.Close(context.WithoutCancel(ctx)); err != nil {
				return err
			}
			if st.Snapshot().IsRead(link) != read {
				return fmt.Errorf("server rejected %s", store.ReadChange{Link: link, Read: read})
			}
			if read {
				e.printer.OK("marked read")
			} else {
				e.printer.OK("marked unread")
			}
			return nil
		},
	}
}

func newRefreshCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the server to re-fetch every feed",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed error
			notify := store.NotifierFunc(func(message string, err error) {
				failed = fmt.Errorf("%s: %w", message, err)
			})
			ctx := cmd.Context()
			return e.withStore(ctx, func(st *store.Store) error {
				if !st.Refresh(ctx) {
					return errors.New("a refresh is already running")
				}
				if failed != nil {
					return failed
				}
				snap := st.Snapshot()
				e.printer.OK("refreshed %d feeds, %d posts", len(snap.Feeds), len(snap.Posts))
				return nil
			}, store.WithNotifier(notify))
		},
	}
}
