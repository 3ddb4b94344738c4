// Package cli implements the feedr command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/feedr/internal/auth"
	"github.com/idilsaglam/feedr/internal/config"
	"github.com/idilsaglam/feedr/internal/gateway"
	"github.com/idilsaglam/feedr/internal/store"
	"github.com/idilsaglam/feedr/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

// usageError marks errors that exit with code 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// env is the state shared by every command of one invocation.
type env struct {
	stdout, stderr io.Writer

	cfgFile   string
	server    string
	verbose   bool
	colorFlag string

	cfg     *config.Config
	logger  *slog.Logger
	printer *ui.Printer
}

// Run executes the command line and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	e := &env{stdout: stdout, stderr: stderr}
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	p := e.printer
	if p == nil {
		p = ui.NewPrinter(stdout, stderr, false, ui.Mono())
	}
	p.Fail("%v", err)

	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(stderr, "Run 'feedr --help' for usage.\n")
		return 2
	}
	return 1
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "feedr",
		Short: "Read RSS and Atom feeds from a feed server",
		Long: `feedr - a terminal client for a feed server

Usage:
  feedr <command> [args]

Examples:
  feedr feeds add https://go.dev/blog/feed.atom --name "Go Blog"
  feedr posts --unread
  feedr read https://go.dev/blog/go1.25
  feedr refresh
  feedr tui`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usageError{errors.New("no command given")}
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := root.PersistentFlags()
	pf.StringVar(&e.cfgFile, "config", "", "config file (default is .feedr.yaml)")
	pf.StringVar(&e.server, "server", "", "feed server URL (overrides server.url)")
	pf.BoolVarP(&e.verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&e.colorFlag, "color", "auto", "color output: auto, always, never")

	root.AddCommand(
		newFeedsCmd(e),
		newPostsCmd(e),
		newMarkCmd(e, true),
		newMarkCmd(e, false),
		newRefreshCmd(e),
		newTUICmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newVersionCmd(e),
	)
	return root
}

// setup loads configuration and builds the logger and printer.
func (e *env) setup() error {
	mode, err := ui.ParseColorMode(e.colorFlag)
	if err != nil {
		return usageError{err}
	}

	cfg, err := config.Load(e.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if e.server != "" {
		cfg.Server.URL = e.server
		if err := cfg.Validate(); err != nil {
			return usageError{err}
		}
	}
	e.cfg = cfg

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	if e.verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))

	theme, _ := ui.ParseTheme(cfg.View.Theme)
	e.printer = ui.NewPrinter(e.stdout, e.stderr, ui.ResolveColors(mode, cfg.Output.Colors), theme)

	e.logger.Debug("configuration loaded",
		"server", cfg.Server.URL,
		"read_policy", cfg.Store.ReadPolicy,
		"reload_ordering", cfg.Store.ReloadOrdering,
	)
	return nil
}

func (e *env) client() *gateway.Client {
	return gateway.New(e.cfg.Server.URL,
		gateway.WithHTTPClient(&http.Client{Timeout: e.cfg.Server.Timeout}),
		gateway.WithTokenSource(auth.BearerToken),
		gateway.WithLogger(e.logger),
		gateway.WithUserAgent("feedr/"+Version),
	)
}

func (e *env) newStore(gw gateway.Gateway, opts ...store.Option) *store.Store {
	all := append(e.cfg.StoreOptions(), store.WithLogger(e.logger))
	return store.New(gw, append(all, opts...)...)
}

// withStore opens a store, runs fn and waits for pending read-state pushes.
func (e *env) withStore(ctx context.Context, fn func(*store.Store) error, opts ...store.Option) error {
	st := e.newStore(e.client(), opts...)
	err := fn(st)
	if cerr := st.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// stdinIsTTY reports whether the reader can take over the terminal.
func stdinIsTTY() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
