package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/taskboard/internal/board"
	"github.com/Makepad-fr/taskboard/internal/config"
	"github.com/Makepad-fr/taskboard/internal/logging"
	"github.com/Makepad-fr/taskboard/internal/model"
	"github.com/Makepad-fr/taskboard/internal/server"
	"github.com/Makepad-fr/taskboard/internal/sheetapi"
	"github.com/Makepad-fr/taskboard/internal/store/taskstore"
	"github.com/Makepad-fr/taskboard/internal/tui"
	"github.com/Makepad-fr/taskboard/internal/ui"
)

// -------------- subcommand impls ----------------

func (a *app) boardCommand() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := parseFilter(assignee)
			if err != nil {
				return err
			}
			return a.runBoard(cmd.Context(), filter)
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", "", "show only one assignee's tasks")
	return cmd
}

func (a *app) runBoard(ctx context.Context, filter board.Filter) error {
	path, err := a.cfg.ResolveLogFile()
	if err != nil {
		return err
	}
	opts := logging.DefaultOptions()
	opts.Level = a.cfg.LogLevel
	opts.ReportTimestamp = true
	logger, closer, err := logging.OpenFile(path, opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := a.openStore(logger)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("board started", "api", a.cfg.APIURL, "refresh", a.cfg.RefreshInterval)
	return tui.Run(ctx, store, a.labels, tui.RunOptions{
		Refresh: a.cfg.RefreshInterval,
		Options: []tui.Option{tui.WithLogger(logger), tui.WithFilter(filter)},
	})
}

func (a *app) listCommand() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Print the board",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := parseFilter(assignee)
			if err != nil {
				return err
			}
			store, err := a.loadedStore(cmd.Context())
			if err != nil {
				return err
			}
			view := board.Build(store.Tasks(), filter)
			ui.Panel(ui.Stdout, boardLines(view, a.labels, a.now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", "", "show only one assignee's tasks")
	return cmd
}

// taskFlags are the editable fields shared by add and edit.
type taskFlags struct {
	title, description, assignee, priority, status string
}

func (f *taskFlags) register(cmd *cobra.Command, withTitle bool) {
	fl := cmd.Flags()
	if withTitle {
		fl.StringVar(&f.title, "title", "", "new title")
	}
	fl.StringVar(&f.description, "desc", "", "description")
	fl.StringVar(&f.assignee, "assignee", "", "kate, mira, kaka or personal")
	fl.StringVar(&f.priority, "priority", "", "low, medium or high")
	fl.StringVar(&f.status, "status", "", "new, working, completed or recheck")
}

func (f *taskFlags) validate() error {
	if f.priority != "" && !validPriority(model.Priority(f.priority)) {
		return usagef("invalid priority %q", f.priority)
	}
	if f.status != "" && !model.Status(f.status).Valid() {
		return usagef("invalid status %q", f.status)
	}
	return nil
}

func (a *app) addCommand() *cobra.Command {
	var tf taskFlags
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task (title can be multiple words)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tf.validate(); err != nil {
				return err
			}
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return usagef("add: %s", taskstore.ErrEmptyTitle)
			}
			logger, err := a.stderrLogger()
			if err != nil {
				return err
			}
			store, err := a.openStore(logger)
			if err != nil {
				return err
			}
			t, err := store.Create(cmd.Context(), model.Fields{
				Title:       title,
				Description: tf.description,
				Assignee:    model.Assignee(tf.assignee),
				Priority:    model.Priority(tf.priority),
				Status:      model.Status(tf.status),
			})
			if err != nil {
				return err
			}
			ui.OK(fmt.Sprintf("added %s (%s)", t.ID, a.labels.Status(t.Status)))
			return nil
		},
	}
	tf.register(cmd, false)
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var tf taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tf.validate(); err != nil {
				return err
			}
			fl := cmd.Flags()
			var p model.Patch
			if fl.Changed("title") {
				title := strings.TrimSpace(tf.title)
				if title == "" {
					return usagef("edit: %s", taskstore.ErrEmptyTitle)
				}
				p.Title = &title
			}
			if fl.Changed("desc") {
				desc := strings.TrimSpace(tf.description)
				p.Description = &desc
			}
			if fl.Changed("assignee") {
				v := model.Assignee(tf.assignee)
				p.Assignee = &v
			}
			if fl.Changed("priority") {
				v := model.Priority(tf.priority)
				p.Priority = &v
			}
			if fl.Changed("status") {
				v := model.Status(tf.status)
				p.Status = &v
			}
			if p.IsEmpty() {
				return usagef("edit: nothing to change")
			}
			return a.mutate(cmd.Context(), model.ID(args[0]), "updated", func(s *taskstore.Store, id model.ID) error {
				return s.Update(cmd.Context(), id, p)
			})
		},
	}
	tf.register(cmd, true)
	return cmd
}

func (a *app) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <id> <status>",
		Short: "Move a task to another column",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := model.Status(strings.ToLower(args[1]))
			if !status.Valid() {
				return usagef("mv: unknown status %q (want new, working, completed or recheck)", args[1])
			}
			return a.mutate(cmd.Context(), model.ID(args[0]), "moved to "+a.labels.Status(status), func(s *taskstore.Store, id model.ID) error {
				return s.Move(cmd.Context(), id, status)
			})
		},
	}
}

func (a *app) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutate(cmd.Context(), model.ID(args[0]), "removed", func(s *taskstore.Store, id model.ID) error {
				return s.Delete(cmd.Context(), id)
			})
		},
	}
}

// mutate loads the board, checks id exists, then applies fn.
func (a *app) mutate(ctx context.Context, id model.ID, done string, fn func(*taskstore.Store, model.ID) error) error {
	store, err := a.loadedStore(ctx)
	if err != nil {
		return err
	}
	if _, ok := store.Get(id); !ok {
		return fmt.Errorf("no task with id %s (run `taskboard ls` to see ids)", id)
	}
	if err := fn(store, id); err != nil {
		return err
	}
	ui.OK(done)
	return nil
}

func (a *app) serveCommand() *cobra.Command {
	var (
		addr, dir, backend, redisURL, dataFile string
		devAPI                                 bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard's static files",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			fl := cmd.Flags()
			if fl.Changed("addr") {
				sc.Addr = addr
			}
			if fl.Changed("dir") {
				sc.Dir = dir
			}
			if fl.Changed("dev-api") {
				sc.DevAPI = devAPI
			}
			if fl.Changed("backend") {
				sc.Backend = backend
			}
			if fl.Changed("redis-url") {
				sc.RedisURL = redisURL
			}
			if fl.Changed("data-file") {
				sc.DataFile = dataFile
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, sc)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&addr, "addr", "", "listen address (default 0.0.0.0:8888)")
	fl.StringVar(&dir, "dir", "", "directory to serve (default .)")
	fl.BoolVar(&devAPI, "dev-api", false, "also serve a local task endpoint at "+sheetapi.DefaultPath)
	fl.StringVar(&backend, "backend", "", "dev endpoint storage: memory, redis or file")
	fl.StringVar(&redisURL, "redis-url", "", "redis URL for the redis backend")
	fl.StringVar(&dataFile, "data-file", "", "JSON file for the file backend")
	return cmd
}

func (a *app) serve(ctx context.Context, sc config.ServerConfig) error {
	logger := logrus.New()
	logger.SetOutput(ui.Stderr)
	if lvl, err := logrus.ParseLevel(a.cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	opts := server.Options{Dir: sc.Dir, Logger: logger}
	if sc.DevAPI {
		b, err := sheetapi.OpenBackend(sheetapi.BackendOptions{Kind: sc.Backend, RedisURL: sc.RedisURL, DataFile: sc.DataFile})
		if err != nil {
			return usageError{err}
		}
		defer b.Close()
		opts.DevAPI = b
		logger.WithField("backend", sc.Backend).Infof("dev endpoint at %s", sheetapi.DefaultPath)
	}
	e, err := server.New(opts)
	if err != nil {
		return err
	}
	ui.OK(fmt.Sprintf("Dashboard running at http://%s", sc.Addr))
	return server.Run(ctx, e, sc.Addr)
}

func parseFilter(assignee string) (board.Filter, error) {
	if assignee == "" {
		return board.FilterAll, nil
	}
	f := board.Filter(strings.ToLower(assignee))
	for _, known := range board.Filters() {
		if f == known {
			return f, nil
		}
	}
	return "", usagef("unknown assignee %q", assignee)
}

func validPriority(p model.Priority) bool {
	for _, v := range model.Priorities {
		if p == v {
			return true
		}
	}
	return false
}
