package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mtgvault/mtgvault/internal/errs"
)

// Redis implements Store on a single Redis instance.
type Redis struct {
	client *redis.Client
}

var _ Store = (*Redis)(nil)

// NewRedis connects a Store to the given Redis address and database.
func NewRedis(addr, password string, db int) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: client}
}

// Ping verifies connectivity; used at startup.
func (r *Redis) Ping(ctx context.Context) error {
	return wrapErr(r.client.Ping(ctx).Err())
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	return v, wrapErr(err)
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return wrapErr(r.client.Set(ctx, key, value, 0).Err())
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return wrapErr(r.client.Del(ctx, keys...).Err())
}

// Keys scans incrementally rather than using the blocking KEYS command.
func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return nil, wrapErr(err)
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func (r *Redis) MGet(ctx context.Context, keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapErr(err)
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = s
		}
	}
	return out, nil
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	v, err := r.client.Incr(ctx, key).Result()
	return v, wrapErr(err)
}

func (r *Redis) ZAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]redis.Z, len(members))
	for i, m := range members {
		zs[i] = redis.Z{Score: 0, Member: m} // score 0: ordering is purely lexicographic
	}
	return wrapErr(r.client.ZAdd(ctx, key, zs...).Err())
}

func (r *Redis) ZRangeByLex(ctx context.Context, key, min, max string, count int64) ([]string, error) {
	rng := &redis.ZRangeBy{Min: min, Max: max}
	if count > 0 {
		rng.Count = count
	}
	vals, err := r.client.ZRangeByLex(ctx, key, rng).Result()
	return vals, wrapErr(err)
}

func (r *Redis) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	n, err := r.client.SAdd(ctx, key, args...).Result()
	return n, wrapErr(err)
}

func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	vals, err := r.client.SMembers(ctx, key).Result()
	return vals, wrapErr(err)
}

func (r *Redis) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	v, err := r.client.HIncrBy(ctx, key, field, delta).Result()
	return v, wrapErr(err)
}

func (r *Redis) HSet(ctx context.Context, key, field, value string) error {
	return wrapErr(r.client.HSet(ctx, key, field, value).Err())
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := r.client.HGetAll(ctx, key).Result()
	return m, wrapErr(err)
}

func (r *Redis) Close() error { return r.client.Close() }

// wrapErr maps go-redis errors onto the shared sentinels: absent keys become
// ErrNotFound, cancellation passes through, anything else (connection
// refused, timeouts, protocol errors) is treated as transient.
func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return errs.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", errs.ErrTransient, err)
	}
}
