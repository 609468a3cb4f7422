package sheetapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Makepad-fr/taskboard/internal/model"
)

// DefaultRedisKey is the hash holding one JSON document per task id.
const DefaultRedisKey = "taskboard:tasks"

// RedisBackend stores tasks in a single Redis hash.
type RedisBackend struct {
	rc  *redis.Client
	key string
}

// DialRedis connects to a redis:// URL.
func DialRedis(rawURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return NewRedisBackend(redis.NewClient(opts), DefaultRedisKey), nil
}

func NewRedisBackend(rc *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{rc: rc, key: key}
}

func (r *RedisBackend) List(ctx context.Context) ([]model.Task, error) {
	raw, err := r.rc.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	out := make([]model.Task, 0, len(raw))
	for id, doc := range raw {
		var t model.Task
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", id, err)
		}
		out = append(out, t)
	}
	newestFirst(out)
	return out, nil
}

func (r *RedisBackend) Get(ctx context.Context, id model.ID) (model.Task, error) {
	doc, err := r.rc.HGet(ctx, r.key, id.String()).Result()
	if errors.Is(err, redis.Nil) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("redis hget: %w", err)
	}
	var t model.Task
	if err := json.Unmarshal([]byte(doc), &t); err != nil {
		return model.Task{}, fmt.Errorf("decode task %s: %w", id, err)
	}
	return t, nil
}

func (r *RedisBackend) Put(ctx context.Context, t model.Task) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := r.rc.HSet(ctx, r.key, t.ID.String(), doc).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (r *RedisBackend) Remove(ctx context.Context, id model.ID) error {
	n, err := r.rc.HDel(ctx, r.key, id.String()).Result()
	if err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisBackend) Close() error { return r.rc.Close() }
