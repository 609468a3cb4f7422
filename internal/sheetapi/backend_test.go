package sheetapi

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/taskboard/internal/model"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	file, err := NewFileBackend(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)

	return map[string]Backend{
		KindMemory: NewMemoryBackend(),
		KindRedis:  NewRedisBackend(rc, "test:tasks"),
		KindFile:   file,
	}
}

func at(minute int) model.Timestamp {
	return model.Timestamp{Time: time.Date(2026, 3, 1, 9, minute, 0, 0, time.UTC)}
}

func TestBackends_Contract(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := b.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			older := model.Task{ID: "a", Title: "Older", Status: model.StatusNew, CreatedAt: at(1), UpdatedAt: at(1)}
			newer := model.Task{ID: "b", Title: "Newer", Status: model.StatusWorking, CreatedAt: at(5), UpdatedAt: at(5)}
			require.NoError(t, b.Put(ctx, older))
			require.NoError(t, b.Put(ctx, newer))

			list, err := b.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, model.ID("b"), list[0].ID, "newest first")

			older.Status = model.StatusCompleted
			require.NoError(t, b.Put(ctx, older))
			got, err := b.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, model.StatusCompleted, got.Status)
			assert.True(t, older.CreatedAt.Equal(got.CreatedAt.Time))

			require.NoError(t, b.Remove(ctx, "a"))
			_, err = b.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, b.Remove(ctx, "a"), ErrNotFound)

			list, err = b.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
			assert.NoError(t, b.Close())
		})
	}
}

func TestBackends_SameCreatedAtListsByID(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []model.ID{"c", "a", "d", "b"} {
				require.NoError(t, b.Put(ctx, model.Task{ID: id, Title: "Same minute", Status: model.StatusNew, CreatedAt: at(3), UpdatedAt: at(3)}))
			}
			require.NoError(t, b.Put(ctx, model.Task{ID: "z", Title: "Later", Status: model.StatusNew, CreatedAt: at(9), UpdatedAt: at(9)}))

			for i := 0; i < 20; i++ {
				list, err := b.List(ctx)
				require.NoError(t, err)
				got := make([]model.ID, 0, len(list))
				for _, task := range list {
					got = append(got, task.ID)
				}
				require.Equal(t, []model.ID{"z", "a", "b", "c", "d"}, got)
			}
		})
	}
}

func TestOpenBackend(t *testing.T) {
	b, err := OpenBackend(BackendOptions{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	b, err = OpenBackend(BackendOptions{Kind: KindFile, DataFile: filepath.Join(t.TempDir(), "t.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	mr := miniredis.RunT(t)
	b, err = OpenBackend(BackendOptions{Kind: KindRedis, RedisURL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	require.NoError(t, b.Put(context.Background(), model.Task{ID: "x", Title: "via url"}))
	assert.True(t, mr.Exists(DefaultRedisKey))
	require.NoError(t, b.Close())

	_, err = OpenBackend(BackendOptions{Kind: KindRedis, RedisURL: "::nope"})
	assert.Error(t, err)
	_, err = OpenBackend(BackendOptions{Kind: "sheets"})
	assert.Error(t, err)
}
