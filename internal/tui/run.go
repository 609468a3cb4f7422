package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/taskboard/internal/labels"
	"github.com/Makepad-fr/taskboard/internal/store/taskstore"
)

// RunOptions configures Run.
type RunOptions struct {
	Refresh time.Duration
	Options []Option
	// ProgramOptions are passed to tea.NewProgram after the alt screen option.
	ProgramOptions []tea.ProgramOption
}

// Run starts the board and blocks until the user quits.
// Store changes reach the program as messages; the store also reloads itself every Refresh.
func Run(ctx context.Context, store *taskstore.Store, l *labels.Labels, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, store, l, opts.Options...)
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts.ProgramOptions...)...)

	unsubscribe := store.Subscribe(func(s taskstore.Snapshot) { p.Send(snapshotMsg(s)) })
	defer unsubscribe()

	if opts.Refresh > 0 {
		if err := store.StartAutoRefresh(ctx, opts.Refresh); err != nil {
			return err
		}
		defer store.StopAutoRefresh()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
