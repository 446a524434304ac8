package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/store"
)

// Allocator issues the next identifier for a record kind.
type Allocator interface {
	NextID(ctx context.Context, kind model.Kind) (int64, error)
}

// CountAllocator returns the number of stored records of the kind. On its own
// it is not safe under concurrent allocation; Repository.Create retries on
// collisions.
type CountAllocator struct {
	engine store.Engine
}

func NewCountAllocator(engine store.Engine) *CountAllocator {
	return &CountAllocator{engine: engine}
}

func (a *CountAllocator) NextID(ctx context.Context, kind model.Kind) (int64, error) {
	count, err := a.engine.Count(ctx, kind)
	if err != nil {
		return 0, translate(err, kind, -1)
	}
	return count, nil
}

// RedisAllocator hands out ids from an INCR counter per kind, seeded from the
// highest stored id the first time a kind is used.
type RedisAllocator struct {
	inner  *redis.Client
	engine store.Engine
	prefix string
}

// NewRedisAllocator connects to addr and verifies the connection.
func NewRedisAllocator(ctx context.Context, addr, password string, engine store.Engine) (*RedisAllocator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &RedisAllocator{inner: client, engine: engine, prefix: "oatext:ids"}, nil
}

func (a *RedisAllocator) key(kind model.Kind) string {
	return fmt.Sprintf("%s:%s", a.prefix, kind)
}

func (a *RedisAllocator) NextID(ctx context.Context, kind model.Kind) (int64, error) {
	key := a.key(kind)
	exists, err := a.inner.Exists(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "check id counter %s", key)
	}
	if exists == 0 {
		max, err := a.engine.MaxID(ctx, kind)
		if err != nil {
			return 0, translate(err, kind, -1)
		}
		// SETNX: 并发的首次调用只有一个能写入种子值。
		if err := a.inner.SetNX(ctx, key, max, 0).Err(); err != nil {
			return 0, errors.Wrapf(err, "seed id counter %s", key)
		}
	}

	id, err := a.inner.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "increment id counter %s", key)
	}
	return id, nil
}

func (a *RedisAllocator) Close() error {
	return a.inner.Close()
}
