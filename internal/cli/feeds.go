package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/feedr/internal/store"
	"github.com/idilsaglam/feedr/internal/ui"
)

func newFeedsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "feeds",
		Aliases: []string{"ls"},
		Short:   "List subscribed feeds",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return e.withStore(ctx, func(st *store.Store) error {
				if err := st.Reload(ctx); err != nil {
					return err
				}
				feeds := st.Snapshot().Feeds
				if len(feeds) == 0 {
					e.printer.Info("No feeds yet. Add one with `feedr feeds add <url>`")
					return nil
				}
				t := ui.NewTable(e.stdout, []string{"ID", "NAME", "URL"})
				for _, f := range feeds {
					t.AddRow([]string{strconv.Itoa(f.ID), f.DisplayName(), f.URL})
				}
				return t.Render()
			})
		},
	}
	cmd.AddCommand(newFeedsAddCmd(e), newFeedsRmCmd(e))
	return cmd
}

func newFeedsAddCmd(e *env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Subscribe to a feed",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.changeFeeds(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				return st.AddFeed(ctx, args[0], name)
			}, "subscribed to %s", args[0])
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name for the feed")
	return cmd
}

func newFeedsRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <url>",
		Aliases: []string{"remove"},
		Short:   "Unsubscribe from a feed",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.changeFeeds(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				return st.RemoveFeed(ctx, args[0])
			}, "unsubscribed from %s", args[0])
		},
	}
}

func (e *env) changeFeeds(ctx context.Context, fn func(context.Context, *store.Store) error, format string, args ...any) error {
	return e.withStore(ctx, func(st *store.Store) error {
		if err := fn(ctx, st); err != nil {
			if errors.Is(err, store.ErrEmptyURL) {
				return usageError{err}
			}
			return err
		}
		e.printer.OK(format, args...)
		return nil
	})
}
