package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/taskboard/internal/config"
	"github.com/Makepad-fr/taskboard/internal/labels"
	"github.com/Makepad-fr/taskboard/internal/logging"
	"github.com/Makepad-fr/taskboard/internal/remote"
	"github.com/Makepad-fr/taskboard/internal/store/taskstore"
	"github.com/Makepad-fr/taskboard/internal/ui"
)

// Options tune where the CLI looks for settings and how it talks to the endpoint.
// Zero values mean the real defaults.
type Options struct {
	UserDir    string
	EnvFile    string
	HTTPClient *http.Client
	// Now replaces the clock used for relative times.
	Now func() time.Time
}

// usageError marks bad invocations; Run exits with 2 for them.
type usageError struct{ error }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	root := NewRootCommand(opt)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	ui.Fail(err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(ui.Stderr, ui.C(ui.Current().Muted, "Hint: run `taskboard --help` to see valid commands"))
		return 2
	}
	return 1
}

type globalFlags struct {
	configFile string
	api        string
	lang       string
	theme      string
	logLevel   string
	logFile    string
	refresh    time.Duration
	noColor    bool
}

// app is what every subcommand needs once flags are parsed.
type app struct {
	opt    Options
	flags  globalFlags
	cfg    *config.Config
	labels *labels.Labels
}

// NewRootCommand builds the taskboard command tree.
func NewRootCommand(opt Options) *cobra.Command {
	a := &app{opt: opt}

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "taskboard - a kanban board for the team task sheet",
		Args:          usageArgs(cobra.NoArgs),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	root.SetOut(ui.Stdout)
	root.SetErr(ui.Stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default ./taskboard.toml)")
	pf.StringVar(&a.flags.api, "api", "", "task endpoint URL")
	pf.StringVar(&a.flags.lang, "lang", "", "label language: en or vi")
	pf.StringVar(&a.flags.theme, "theme", "", "output theme: classic, neon or mono")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.flags.logFile, "log-file", "", "board log file (default ~/.taskboard/taskboard.log)")
	pf.DurationVar(&a.flags.refresh, "refresh", 0, "board auto refresh interval")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	boardCmd := a.boardCommand()
	root.RunE = boardCmd.RunE
	root.Flags().AddFlagSet(boardCmd.Flags())

	root.AddCommand(
		boardCmd,
		a.listCommand(),
		a.addCommand(),
		a.editCommand(),
		a.moveCommand(),
		a.removeCommand(),
		a.serveCommand(),
	)
	return root
}

// prepare resolves config: files and env first, then flags set on this invocation.
func (a *app) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: a.flags.configFile,
		UserDir:    a.opt.UserDir,
		EnvFile:    a.opt.EnvFile,
	})
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = a.flags.api
	}
	if flags.Changed("lang") {
		cfg.Lang = a.flags.lang
	}
	if flags.Changed("theme") {
		cfg.Theme = a.flags.theme
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.flags.logFile
	}
	if flags.Changed("refresh") {
		cfg.RefreshInterval = a.flags.refresh
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}

	ui.SetTheme(cfg.Theme)
	if a.flags.noColor {
		ui.SetColorForcing(false, true)
	}
	l, err := labels.New(cfg.Lang)
	if err != nil {
		return err
	}
	a.cfg, a.labels = cfg, l
	return nil
}

func (a *app) now() time.Time {
	if a.opt.Now != nil {
		return a.opt.Now()
	}
	return time.Now()
}

// stderrLogger is the logger for one-shot commands.
func (a *app) stderrLogger() (*log.Logger, error) {
	opts := logging.DefaultOptions()
	opts.Level = a.cfg.LogLevel
	return logging.New(ui.Stderr, opts)
}

// openStore builds a store talking to the configured endpoint.
func (a *app) openStore(logger *log.Logger) (*taskstore.Store, error) {
	if err := a.cfg.RequireAPI(); err != nil {
		return nil, usageError{err}
	}
	opts := []remote.Option{remote.WithLogger(logger)}
	if a.opt.HTTPClient != nil {
		opts = append(opts, remote.WithHTTPClient(a.opt.HTTPClient))
	}
	client, err := remote.New(a.cfg.APIURL, opts...)
	if err != nil {
		return nil, usageError{err}
	}
	return taskstore.New(client, taskstore.WithLogger(logger)), nil
}

// loadedStore is openStore followed by a first Load.
func (a *app) loadedStore(ctx context.Context) (*taskstore.Store, error) {
	logger, err := a.stderrLogger()
	if err != nil {
		return nil, err
	}
	store, err := a.openStore(logger)
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
