package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/taskboard/internal/board"
	"github.com/Makepad-fr/taskboard/internal/labels"
	"github.com/Makepad-fr/taskboard/internal/model"
	"github.com/Makepad-fr/taskboard/internal/store/taskstore"
)

var (
	errOffline = errors.New("offline")
	testNow    = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
)

// fakeRemote is an in-memory endpoint that can be switched offline.
type fakeRemote struct {
	mu      sync.Mutex
	tasks   []model.Task
	offline bool
	seq     int
	patches []model.Patch
}

func (f *fakeRemote) List(context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return nil, errOffline
	}
	return append([]model.Task(nil), f.tasks...), nil
}

func (f *fakeRemote) Add(_ context.Context, fl model.Fields) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return model.Task{}, errOffline
	}
	f.seq++
	t := fl.Provisional(model.ID(fmt.Sprintf("srv-%d", f.seq)), testNow)
	f.tasks = append([]model.Task{t}, f.tasks...)
	return t, nil
}

func (f *fakeRemote) Update(_ context.Context, id model.ID, p model.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return errOffline
	}
	f.patches = append(f.patches, p)
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i] = p.Apply(f.tasks[i])
		}
	}
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return errOffline
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeRemote) setOffline(v bool) {
	f.mu.Lock()
	f.offline = v
	f.mu.Unlock()
}

func seedTasks() []model.Task {
	at := model.Timestamp{Time: testNow.Add(-2 * time.Hour)}
	return []model.Task{
		{ID: "1", Title: "Draft roadmap", Assignee: model.AssigneeKate, Priority: model.PriorityHigh, Status: model.StatusNew, CreatedAt: at, UpdatedAt: at},
		{ID: "2", Title: "Review PR", Description: "auth flow", Assignee: model.AssigneeMira, Priority: model.PriorityMedium, Status: model.StatusNew, CreatedAt: at, UpdatedAt: at},
		{ID: "3", Title: "Deploy", Assignee: model.AssigneeKaka, Priority: model.PriorityLow, Status: model.StatusWorking, CreatedAt: at, UpdatedAt: at},
	}
}

func newTestModel(t *testing.T) (Model, *taskstore.Store, *fakeRemote) {
	t.Helper()
	remote := &fakeRemote{tasks: seedTasks()}
	store := taskstore.New(remote, taskstore.WithClock(func() time.Time { return testNow }))
	require.NoError(t, store.Load(context.Background()))
	m := New(context.Background(), store, labels.MustNew("en"), WithClock(func() time.Time { return testNow }))
	return m, store, remote
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// press sends one message and returns the new model and its command.
func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// settle runs cmd and feeds its message back, like the Bubble Tea loop does.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())
	return m
}

func columnIDs(m Model, s model.Status) []model.ID {
	var out []model.ID
	for _, t := range m.view.Column(s).Tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestModel_InitialBoard(t *testing.T) {
	m, _, _ := newTestModel(t)

	assert.Equal(t, []model.ID{"1", "2"}, columnIDs(m, model.StatusNew))
	assert.Equal(t, []model.ID{"3"}, columnIDs(m, model.StatusWorking))
	assert.Equal(t, model.ID("1"), m.selected)
	assert.Equal(t, 3, m.view.Stats.Total)
}

func TestModel_Navigation(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, runes("j"))
	assert.Equal(t, model.ID("2"), m.selected)
	m, _ = press(t, m, runes("j"))
	assert.Equal(t, model.ID("2"), m.selected, "stays on last card")

	m, _ = press(t, m, runes("l"))
	assert.Equal(t, 1, m.col)
	assert.Equal(t, model.ID("3"), m.selected)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, m.col)
	assert.Equal(t, model.ID(""), m.selected, "empty column")
}

func TestModel_MoveCardRightFollowsCard(t *testing.T) {
	m, store, remote := newTestModel(t)

	m, cmd := press(t, m, runes("L"))
	m = settle(t, m, cmd)

	got, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, model.StatusWorking, got.Status)
	assert.Equal(t, 1, m.col, "cursor follows the card")
	assert.Equal(t, model.ID("1"), m.selected)
	require.Len(t, remote.patches, 1)
	assert.Equal(t, map[string]string{"status": "working"}, remote.patches[0].Values())
}

func TestModel_MoveFailureRevertsWithoutAlert(t *testing.T) {
	m, _, remote := newTestModel(t)
	remote.setOffline(true)

	m, cmd := press(t, m, runes("3"))
	m = settle(t, m, cmd)

	assert.Equal(t, []model.ID{"1", "2"}, columnIDs(m, model.StatusNew))
	assert.Empty(t, columnIDs(m, model.StatusCompleted))
	assert.Equal(t, modeBoard, m.mode)
}

func TestModel_MoveToSameStatusIsNoop(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := press(t, m, runes("1"))
	assert.Nil(t, cmd)
	_, cmd = press(t, m, runes("H"))
	assert.Nil(t, cmd, "no column left of new")
}

func TestModel_CreateTask(t *testing.T) {
	m, store, _ := newTestModel(t)

	m, _ = press(t, m, runes("a"))
	require.Equal(t, modeForm, m.mode)
	m, _ = press(t, m, runes("Buy milk"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeBoard, m.mode)

	m = settle(t, m, cmd)

	tasks := store.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, model.PriorityMedium, tasks[0].Priority)
	assert.False(t, tasks[0].Pending())
	assert.Equal(t, tasks[0].ID, m.selected)
	assert.Equal(t, model.StatusNew, tasks[0].Status)
}

func TestModel_CreateRequiresTitle(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, modeForm, m.mode)
	assert.Equal(t, "Title cannot be empty", m.form.err)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeBoard, m.mode)
}

func TestModel_CreateOfflineShowsAlertAndRollsBack(t *testing.T) {
	m, store, remote := newTestModel(t)
	remote.setOffline(true)

	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, runes("Offline task"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	assert.Equal(t, modeAlert, m.mode)
	assert.Contains(t, m.alert, "Could not create task")
	assert.Len(t, store.Tasks(), 3)
	assert.Contains(t, m.View(), "Could not create task")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeBoard, m.mode)
}

func TestModel_EditSendsChangedFieldsOnly(t *testing.T) {
	m, store, remote := newTestModel(t)

	m, _ = press(t, m, runes("e"))
	require.Equal(t, modeForm, m.mode)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, runes("l"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	require.Len(t, remote.patches, 1)
	assert.Equal(t, map[string]string{"priority": "low"}, remote.patches[0].Values())
	got, _ := store.Get("1")
	assert.Equal(t, model.PriorityLow, got.Priority)
	assert.Equal(t, modeBoard, m.mode)
}

func TestModel_EditWithoutChangesSendsNothing(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, runes("e"))
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, store, _ := newTestModel(t)

	m, _ = press(t, m, runes("d"))
	require.Equal(t, modeConfirm, m.mode)
	m, cmd := press(t, m, runes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeBoard, m.mode)
	assert.Len(t, store.Tasks(), 3)

	m, _ = press(t, m, runes("d"))
	m, cmd = press(t, m, runes("y"))
	m = settle(t, m, cmd)

	_, ok := store.Get("1")
	assert.False(t, ok)
	assert.Equal(t, model.ID("2"), m.selected, "cursor moves to the next card")
}

func TestModel_DeleteOfflineRestores(t *testing.T) {
	m, store, remote := newTestModel(t)
	remote.setOffline(true)

	m, _ = press(t, m, runes("d"))
	m, cmd := press(t, m, runes("y"))
	m = settle(t, m, cmd)

	_, ok := store.Get("1")
	assert.True(t, ok)
	assert.Equal(t, []model.ID{"1", "2"}, columnIDs(m, model.StatusNew))
}

func TestModel_PendingCardIsLocked(t *testing.T) {
	m, _, _ := newTestModel(t)
	pending := taskstore.Snapshot{
		Tasks:    append([]model.Task{{ID: "temp_x", Title: "Saving", Status: model.StatusNew}}, seedTasks()...),
		InFlight: 1,
		Version:  m.snap.Version + 1,
	}
	m, _ = press(t, m, snapshotMsg(pending))
	m, _ = press(t, m, runes("k"))
	require.Equal(t, model.ID("temp_x"), m.selected)

	for _, k := range []string{"e", "d", "L"} {
		next, cmd := press(t, m, runes(k))
		assert.Nil(t, cmd, k)
		assert.Equal(t, modeBoard, next.mode, k)
		assert.Equal(t, "This task is still being saved", next.notice, k)
	}
	assert.Contains(t, m.View(), "Syncing")
}

func TestModel_StaleSnapshotIgnored(t *testing.T) {
	m, _, _ := newTestModel(t)
	current := m.snap.Version

	m, _ = press(t, m, snapshotMsg(taskstore.Snapshot{Version: current - 1}))

	assert.Equal(t, current, m.snap.Version)
	assert.Equal(t, 3, m.view.Stats.Total)
}

func TestModel_FilterCycles(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, runes("f"))

	assert.Equal(t, board.Filter(model.AssigneeKate), m.view.Filter)
	assert.Equal(t, []model.ID{"1"}, columnIDs(m, model.StatusNew))
	assert.Empty(t, columnIDs(m, model.StatusWorking))
	assert.Equal(t, 1, m.view.Stats.Total)
}

func TestModel_RefreshReloads(t *testing.T) {
	m, _, remote := newTestModel(t)
	remote.mu.Lock()
	remote.tasks = remote.tasks[:1]
	remote.mu.Unlock()

	m, cmd := press(t, m, runes("r"))
	m = settle(t, m, cmd)

	assert.Equal(t, 1, m.view.Stats.Total)
}

func TestModel_DetailView(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = press(t, m, runes("j"))

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeDetail, m.mode)
	out := m.View()
	assert.Contains(t, out, "Review PR")
	assert.Contains(t, out, "auth flow")

	m, _ = press(t, m, runes("e"))
	assert.Equal(t, modeForm, m.mode)
	assert.Equal(t, model.ID("2"), m.form.editing)
}

func TestModel_BoardViewRendersColumns(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})

	out := m.View()

	for _, want := range []string{"Team AI Dashboard", "New", "Working", "Done", "Recheck", "Draft roadmap", "2h ago", "No tasks"} {
		assert.True(t, strings.Contains(out, want), want)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
