// Package taskstore keeps the board's in-memory task list in step with the
// remote task endpoint.
//
// Every mutation is optimistic: the local list changes first, subscribers are
// told, and only then is the remote call issued. A failed call puts the list
// back the way it was. Calls are not queued, so several may be in flight at once;
// each completion works on the list as it is when the call returns.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/Makepad-fr/taskboard/internal/model"
)

// ErrEmptyTitle is returned by Create before anything is changed.
var ErrEmptyTitle = errors.New("title cannot be empty")

// Remote is the task endpoint the store synchronises with.
type Remote interface {
	List(ctx context.Context) ([]model.Task, error)
	Add(ctx context.Context, f model.Fields) (model.Task, error)
	Update(ctx context.Context, id model.ID, p model.Patch) error
	Delete(ctx context.Context, id model.ID) error
}

// Snapshot is a copy of the store state handed to subscribers.
type Snapshot struct {
	Tasks []model.Task
	// InFlight counts remote calls that have not settled yet.
	InFlight int
	// Version increases with every change; a subscriber that sees an older
	// version than the one it already holds can drop it.
	Version uint64
}

func (s Snapshot) Syncing() bool { return s.InFlight > 0 }

// Listener is called after every change, outside the store lock.
type Listener func(Snapshot)

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides time.Now for provisional timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how temporary ids are minted.
func WithIDGenerator(gen func() model.ID) Option {
	return func(s *Store) { s.newID = gen }
}

// Store owns the task list. The zero value is not usable; call New.
type Store struct {
	remote Remote
	log    *log.Logger
	now    func() time.Time
	newID  func() model.ID

	mu        sync.Mutex
	tasks     []model.Task
	inFlight  int
	version   uint64
	listeners map[int]Listener
	nextSub   int
	cron      *cron.Cron
	// settled maps temp ids whose create finished while other calls were
	// still in flight to the server task, or to a zero task if it failed.
	settled map[model.ID]model.Task
}

func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:    remote,
		log:       log.New(io.Discard),
		now:       time.Now,
		newID:     model.NewTempID,
		listeners: map[int]Listener{},
		settled:   map[model.ID]model.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Tasks returns a copy of the current list.
func (s *Store) Tasks() []model.Task {
	return s.Snapshot().Tasks
}

func (s *Store) Get(id model.ID) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return model.Task{}, false
}

// Load replaces the whole list with the remote one. On failure the list is
// left alone and the error is only logged and returned; it is safe to call
// from a timer.
func (s *Store) Load(ctx context.Context) error {
	s.change(func() bool {
		s.inFlight++
		return true
	})

	tasks, err := s.remote.List(ctx)

	s.change(func() bool {
		s.inFlight--
		if err == nil {
			s.tasks = slices.Clone(tasks)
		}
		return true
	})
	if err != nil {
		s.log.Warn("load tasks failed", "err", err)
		return fmt.Errorf("load tasks: %w", err)
	}
	s.log.Debug("tasks loaded", "count", len(tasks))
	return nil
}

// Create shows a provisional task at the top of the list right away, then
// swaps it for the server's copy. If the server refuses, the provisional task
// is removed and the error returned for the caller to surface.
func (s *Store) Create(ctx context.Context, f model.Fields) (model.Task, error) {
	f = f.Normalize()
	if f.Title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	tempID := s.newID()
	provisional := f.Provisional(tempID, s.now())

	s.change(func() bool {
		s.tasks = append([]model.Task{provisional}, s.tasks...)
		s.inFlight++
		return true
	})

	created, err := s.remote.Add(ctx, f)

	s.change(func() bool {
		s.inFlight--
		if err != nil {
			s.settled[tempID] = model.Task{}
		} else {
			s.settled[tempID] = created
		}
		i := s.indexLocked(tempID)
		switch {
		case err != nil:
			if i >= 0 {
				s.tasks = slices.Delete(s.tasks, i, i+1)
			}
		case i >= 0:
			s.tasks[i] = created
		case s.indexLocked(created.ID) < 0:
			// A reload dropped the provisional row before the server answered.
			s.tasks = append([]model.Task{created}, s.tasks...)
		}
		return true
	})
	if err != nil {
		s.log.Error("create task failed", "title", f.Title, "err", err)
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// Update merges p into the task with the given id. An unknown id is a no-op.
// If the server refuses, the task is put back exactly as it was.
func (s *Store) Update(ctx context.Context, id model.ID, p model.Patch) error {
	var (
		before model.Task
		found  bool
	)
	s.change(func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		found = true
		before = s.tasks[i]
		next := p.Apply(before)
		next.UpdatedAt = model.Timestamp{Time: s.now()}
		s.tasks[i] = next
		s.inFlight++
		return true
	})
	if !found {
		return nil
	}

	err := s.remote.Update(ctx, id, p)

	s.change(func() bool {
		s.inFlight--
		if err != nil {
			if i := s.indexLocked(id); i >= 0 {
				s.tasks[i] = before
			}
		}
		return true
	})
	if err != nil {
		s.log.Error("update task failed", "id", id, "err", err)
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

// Delete removes the task right away. If the server refuses, the whole list
// is restored to what it was when Delete was called.
func (s *Store) Delete(ctx context.Context, id model.ID) error {
	var before []model.Task
	s.change(func() bool {
		before = slices.Clone(s.tasks)
		s.tasks = slices.DeleteFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
		s.inFlight++
		return true
	})

	err := s.remote.Delete(ctx, id)

	s.change(func() bool {
		s.inFlight--
		if err != nil {
			s.tasks = s.resolveTempLocked(before)
		}
		return true
	})
	if err != nil {
		s.log.Error("delete task failed", "id", id, "err", err)
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// Move puts the task in another column.
func (s *Store) Move(ctx context.Context, id model.ID, status model.Status) error {
	return s.Update(ctx, id, model.StatusPatch(status))
}

// StartAutoRefresh reloads the list every interval until ctx is done or
// StopAutoRefresh is called. A reload still running when the next one is due
// is not doubled up.
func (s *Store) StartAutoRefresh(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		return fmt.Errorf("auto refresh: interval must be positive, got %s", every)
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc("@every "+every.String(), func() { _ = s.Load(ctx) }); err != nil {
		return fmt.Errorf("auto refresh: %w", err)
	}

	s.mu.Lock()
	prev := s.cron
	s.cron = c
	s.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
	c.Start()
	s.log.Debug("auto refresh started", "every", every)

	go func() {
		<-ctx.Done()
		s.stopCron(c)
	}()
	return nil
}

func (s *Store) StopAutoRefresh() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c != nil {
		s.stopCron(c)
	}
}

func (s *Store) stopCron(c *cron.Cron) {
	s.mu.Lock()
	if s.cron == c {
		s.cron = nil
	}
	s.mu.Unlock()
	c.Stop()
}

// change runs fn under the lock and, if fn reports a change, tells every subscriber.
func (s *Store) change(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	if s.inFlight == 0 {
		clear(s.settled)
	}
	s.version++
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// resolveTempLocked swaps temp ids in an old copy of the list for what their
// create settled to, so a rollback never brings back a finished placeholder.
func (s *Store) resolveTempLocked(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.ID.IsTemp() {
			out = append(out, t)
			continue
		}
		created, ok := s.settled[t.ID]
		switch {
		case !ok:
			out = append(out, t)
		case created.ID != "" && !slices.ContainsFunc(tasks, func(o model.Task) bool { return o.ID == created.ID }):
			out = append(out, created)
		}
	}
	return out
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Tasks:    slices.Clone(s.tasks),
		InFlight: s.inFlight,
		Version:  s.version,
	}
}

func (s *Store) indexLocked(id model.ID) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}
