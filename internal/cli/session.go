package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/feedr/internal/auth"
	"github.com/idilsaglam/feedr/internal/store"
	"github.com/idilsaglam/feedr/internal/tui"
)

func newTUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive reader",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdinIsTTY() {
				return usageError{errors.New("tui needs an interactive terminal")}
			}
			ctx := cmd.Context()
			client := e.client()
			notes := tui.NewNotifier()
			st := e.newStore(client, store.WithNotifier(notes))
			defer func() {
				if err := st.Close(context.WithoutCancel(ctx)); err != nil {
					e.logger.Warn("closing store", "error", err)
				}
			}()

			return tui.Run(ctx, st, client, notes, tui.Options{
				HideRead: e.cfg.View.HideRead,
				Theme:    e.printer.Theme(),
			})
		},
	}
}

func newLoginCmd(e *env) *cobra.Command {
	var expires time.Duration
	cmd := &cobra.Command{
		Use:   "login [token]",
		Short: "Store an API token for the feed server",
		Long: `Store an API token for the feed server in ~/.feedr/credentials.json.
Without an argument the token is read from standard input.
FEEDR_TOKEN, when set, takes precedence over the stored token.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				fmt.Fprint(e.stdout, "Paste your token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("reading token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			var exp *time.Time
			if expires > 0 {
				t := time.Now().Add(expires)
				exp = &t
			}
			if err := auth.SetToken(token, exp); err != nil {
				return fmt.Errorf("saving token: %w", err)
			}
			path, _ := auth.CredFilePath()
			e.printer.OK("token saved to %s", path)
			return nil
		},
	}
	cmd.Flags().DurationVar(&expires, "expires", 0, "token lifetime, e.g. 720h (default: never)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ti, _ := auth.GetToken(); ti != nil && ti.Source == auth.SourceEnv {
				e.printer.OK("token is provided by FEEDR_TOKEN (nothing to delete)")
				return nil
			}
			if err := auth.DeleteToken(); err != nil {
				return fmt.Errorf("removing token: %w", err)
			}
			e.printer.OK("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show where the API token comes from",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := auth.GetToken()
			if err != nil {
				return err
			}
			if ti == nil {
				e.printer.Info("not logged in")
				e.printer.Print("Run: feedr login")
				return nil
			}
			e.printer.Print("source: %s", ti.Source)
			switch {
			case ti.ExpiresAt == nil:
				e.printer.Print("expires: never")
			case ti.Expired(time.Now()):
				e.printer.Print("expires: %s %s", ti.ExpiresAt.UTC().Format(time.RFC3339), e.printer.Dim("(expired)"))
			default:
				e.printer.Print("expires: %s", ti.ExpiresAt.UTC().Format(time.RFC3339))
			}
			e.printer.Print("server: %s", e.cfg.Server.URL)
			return nil
		},
	}
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the feedr version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			e.printer.Print("feedr %s", Version)
			return nil
		},
	}
}
