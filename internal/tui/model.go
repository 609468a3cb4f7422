// Package tui is the interactive kanban board.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/taskboard/internal/board"
	"github.com/Makepad-fr/taskboard/internal/labels"
	"github.com/Makepad-fr/taskboard/internal/model"
	"github.com/Makepad-fr/taskboard/internal/store/taskstore"
)

// Store is what the board needs from the task store.
type Store interface {
	Snapshot() taskstore.Snapshot
	Load(ctx context.Context) error
	Create(ctx context.Context, f model.Fields) (model.Task, error)
	Update(ctx context.Context, id model.ID, p model.Patch) error
	Delete(ctx context.Context, id model.ID) error
	Move(ctx context.Context, id model.ID, status model.Status) error
}

type mode int

const (
	modeBoard mode = iota
	modeForm
	modeDetail
	modeConfirm
	modeAlert
)

type (
	snapshotMsg taskstore.Snapshot
	loadedMsg   struct{ err error }
	createdMsg  struct {
		task model.Task
		err  error
	}
	mutatedMsg struct {
		op  string
		err error
	}
)

// Model is the Bubble Tea model of the board.
type Model struct {
	ctx    context.Context
	store  Store
	labels *labels.Labels
	log    *log.Logger
	now    func() time.Time

	snap   taskstore.Snapshot
	view   board.View
	filter board.Filter

	col, row int
	selected model.ID

	mode   mode
	form   taskForm
	detail model.ID
	alert  string
	notice string

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width, height int
}

type Option func(*Model)

func WithLogger(l *log.Logger) Option { return func(m *Model) { m.log = l } }

func WithClock(now func() time.Time) Option { return func(m *Model) { m.now = now } }

func WithFilter(f board.Filter) Option { return func(m *Model) { m.filter = f } }

func New(ctx context.Context, store Store, l *labels.Labels, opts ...Option) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(pendingStyle))
	m := Model{
		ctx:     ctx,
		store:   store,
		labels:  l,
		log:     log.Default(),
		now:     time.Now,
		filter:  board.FilterAll,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
		width:   100,
		height:  30,
	}
	for _, o := range opts {
		o(&m)
	}
	m = m.apply(store.Snapshot())
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		return m.apply(taskstore.Snapshot(msg)), nil

	case loadedMsg:
		if msg.err != nil {
			m.log.Warn("refresh failed", "err", msg.err)
		}
		return m.apply(m.store.Snapshot()), nil

	case createdMsg:
		m = m.apply(m.store.Snapshot())
		if msg.err != nil && !errors.Is(msg.err, taskstore.ErrEmptyTitle) {
			m.alert = m.labels.T("create_failed", map[string]any{"Error": msg.err.Error()})
			m.mode = modeAlert
		} else if msg.err == nil {
			m.selected = msg.task.ID
			m = m.relocate()
		}
		return m, nil

	case mutatedMsg:
		if msg.err != nil {
			m.log.Error("change rolled back", "op", msg.op, "err", msg.err)
		}
		return m.apply(m.store.Snapshot()), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeDetail:
			return m.updateDetail(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeAlert:
			if msg.String() == "enter" || msg.String() == "esc" || msg.String() == " " {
				m.mode, m.alert = modeBoard, ""
			}
			return m, nil
		}
		return m.updateBoard(msg)
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.MoveLeft):
		return m.moveBy(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.moveBy(1)
	case key.Matches(msg, m.keys.MoveTo):
		i := int(msg.String()[0] - '1')
		return m.moveTo(model.Statuses[i])
	case key.Matches(msg, m.keys.Left):
		m = m.focusColumn(m.col - 1)
	case key.Matches(msg, m.keys.Right):
		m = m.focusColumn(m.col + 1)
	case key.Matches(msg, m.keys.Up):
		m = m.focusRow(m.row - 1)
	case key.Matches(msg, m.keys.Down):
		m = m.focusRow(m.row + 1)
	case key.Matches(msg, m.keys.New):
		m.form = newTaskForm(model.Fields{}, "")
		m.mode = modeForm
	case key.Matches(msg, m.keys.Edit):
		return m.openEdit()
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.current(); ok {
			if t.Pending() {
				m.notice = m.labels.T("still_saving", nil)
				break
			}
			m.detail = t.ID
			m.mode = modeConfirm
		}
	case key.Matches(msg, m.keys.Open):
		if t, ok := m.current(); ok {
			m.detail = t.ID
			m.mode = modeDetail
		}
	case key.Matches(msg, m.keys.Filter):
		m.filter = m.filter.Next()
		m = m.apply(m.snap)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadCmd()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, res, cmd := m.form.update(msg, m.labels)
	m.form = form
	switch res {
	case formCancelled:
		m.mode = modeBoard
		return m, nil
	case formSubmitted:
		m.mode = modeBoard
		if form.editing == "" {
			return m, m.createCmd(form.fields())
		}
		if p := form.patch(); !p.IsEmpty() {
			return m, m.updateCmd(form.editing, p)
		}
		return m, nil
	}
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Quit):
		m.mode = modeBoard
	case key.Matches(msg, m.keys.Edit):
		m.selected = m.detail
		m.mode = modeBoard
		return m.openEdit()
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.task(m.detail); ok && !t.Pending() {
			m.mode = modeConfirm
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeBoard
		return m, m.deleteCmd(m.detail)
	case "n", "N", "esc", "q":
		m.mode = modeBoard
	}
	return m, nil
}

func (m Model) openEdit() (tea.Model, tea.Cmd) {
	t, ok := m.current()
	if !ok {
		return m, nil
	}
	if t.Pending() {
		m.notice = m.labels.T("still_saving", nil)
		return m, nil
	}
	m.form = newTaskForm(t.Fields(), t.ID)
	m.mode = modeForm
	return m, nil
}

func (m Model) moveBy(d int) (tea.Model, tea.Cmd) {
	t, ok := m.current()
	if !ok {
		return m, nil
	}
	i := t.Status.Index() + d
	if i < 0 || i >= len(model.Statuses) {
		return m, nil
	}
	return m.moveTo(model.Statuses[i])
}

func (m Model) moveTo(s model.Status) (tea.Model, tea.Cmd) {
	t, ok := m.current()
	if !ok || t.Status == s {
		return m, nil
	}
	if t.Pending() {
		m.notice = m.labels.T("still_saving", nil)
		return m, nil
	}
	return m, m.moveCmd(t.ID, s)
}

// apply takes a store snapshot unless an equal or newer one was already shown.
func (m Model) apply(s taskstore.Snapshot) Model {
	if s.Version < m.snap.Version {
		return m
	}
	m.snap = s
	m.view = board.Build(s.Tasks, m.filter)
	return m.relocate()
}

// relocate keeps the cursor on the selected task when cards shift around.
func (m Model) relocate() Model {
	if m.selected != "" {
		if c, r := m.view.Locate(m.selected); c >= 0 {
			m.col, m.row = c, r
			return m
		}
	}
	return m.focusRow(m.row)
}

func (m Model) focusColumn(c int) Model {
	if c < 0 || c >= len(m.view.Columns) {
		return m
	}
	m.col = c
	return m.focusRow(m.row)
}

func (m Model) focusRow(r int) Model {
	n := 0
	if m.col < len(m.view.Columns) {
		n = m.view.Columns[m.col].Count()
	}
	switch {
	case n == 0:
		m.row, m.selected = 0, ""
		return m
	case r < 0:
		r = 0
	case r >= n:
		r = n - 1
	}
	m.row = r
	m.selected = m.view.Columns[m.col].Tasks[r].ID
	return m
}

func (m Model) current() (model.Task, bool) {
	if m.col >= len(m.view.Columns) {
		return model.Task{}, false
	}
	tasks := m.view.Columns[m.col].Tasks
	if m.row < 0 || m.row >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.row], true
}

func (m Model) task(id model.ID) (model.Task, bool) {
	for _, t := range m.snap.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m Model) loadCmd() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg { return loadedMsg{err: store.Load(ctx)} }
}

func (m Model) createCmd(f model.Fields) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		t, err := store.Create(ctx, f)
		return createdMsg{task: t, err: err}
	}
}

func (m Model) updateCmd(id model.ID, p model.Patch) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg { return mutatedMsg{op: "update", err: store.Update(ctx, id, p)} }
}

func (m Model) moveCmd(id model.ID, s model.Status) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg { return mutatedMsg{op: "move", err: store.Move(ctx, id, s)} }
}

func (m Model) deleteCmd(id model.ID) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg { return mutatedMsg{op: "delete", err: store.Delete(ctx, id)} }
}
