package sheetapi

import (
	"context"

	"github.com/Makepad-fr/taskboard/internal/model"
	"github.com/Makepad-fr/taskboard/internal/store/jsonstore"
)

// FileBackend keeps tasks in a JSON file on disk.
type FileBackend struct {
	store *jsonstore.Store
}

func NewFileBackend(path string) (*FileBackend, error) {
	s, err := jsonstore.New(path)
	if err != nil {
		return nil, err
	}
	return &FileBackend{store: s}, nil
}

func (f *FileBackend) List(context.Context) ([]model.Task, error) {
	tasks, err := f.store.Load()
	if err != nil {
		return nil, err
	}
	newestFirst(tasks)
	return tasks, nil
}

func (f *FileBackend) Get(_ context.Context, id model.ID) (model.Task, error) {
	tasks, err := f.store.Load()
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, ErrNotFound
}

func (f *FileBackend) Put(_ context.Context, t model.Task) error {
	return f.store.Update(func(tasks []model.Task) ([]model.Task, error) {
		for i := range tasks {
			if tasks[i].ID == t.ID {
				tasks[i] = t
				return tasks, nil
			}
		}
		return append(tasks, t), nil
	})
}

func (f *FileBackend) Remove(_ context.Context, id model.ID) error {
	return f.store.Update(func(tasks []model.Task) ([]model.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				return append(tasks[:i], tasks[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

func (f *FileBackend) Close() error { return nil }
