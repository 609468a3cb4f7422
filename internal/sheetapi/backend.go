// Package sheetapi is a local stand-in for the spreadsheet task endpoint.
// It speaks the same action protocol (list, add, update, delete over GET
// query parameters, JSON envelope) on top of a pluggable Backend.
package sheetapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Makepad-fr/taskboard/internal/model"
)

// ErrNotFound is returned by backends for an unknown task id.
var ErrNotFound = errors.New("task not found")

const (
	KindMemory = "memory"
	KindRedis  = "redis"
	KindFile   = "file"
)

// Backend persists server-side tasks.
type Backend interface {
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id model.ID) (model.Task, error)
	// Put inserts t or replaces the task with the same id.
	Put(ctx context.Context, t model.Task) error
	Remove(ctx context.Context, id model.ID) error
	Close() error
}

// BackendOptions selects and configures a backend.
type BackendOptions struct {
	Kind     string
	RedisURL string
	DataFile string
}

// OpenBackend builds the backend named by opts.Kind.
func OpenBackend(opts BackendOptions) (Backend, error) {
	switch opts.Kind {
	case "", KindMemory:
		return NewMemoryBackend(), nil
	case KindRedis:
		return DialRedis(opts.RedisURL)
	case KindFile:
		return NewFileBackend(opts.DataFile)
	}
	return nil, fmt.Errorf("unknown backend %q", opts.Kind)
}

// newestFirst orders tasks the way the board shows them. Ties on createdAt
// fall back to id so listings are repeatable.
func newestFirst(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt.Time); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
}

// MemoryBackend keeps tasks in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	tasks map[model.ID]model.Task
}

func NewMemoryBackend(seed ...model.Task) *MemoryBackend {
	m := &MemoryBackend{tasks: make(map[model.ID]model.Task, len(seed))}
	for _, t := range seed {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *MemoryBackend) List(context.Context) ([]model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	newestFirst(out)
	return out, nil
}

func (m *MemoryBackend) Get(_ context.Context, id model.ID) (model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryBackend) Put(_ context.Context, t model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, id model.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
