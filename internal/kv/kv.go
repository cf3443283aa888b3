// Package kv defines the key-value cache backend contract used by the
// catalog and the collection projection, with Redis and in-memory
// implementations.
package kv

import "context"

// Store is the minimal set of primitives the cache side of the system
// needs: plain keys, prefix scan, a lex-sorted set for prefix search,
// membership sets and numeric hashes with atomic increment.
//
// Range bounds for ZRangeByLex use Redis lex syntax: "[x" inclusive,
// "(x" exclusive, "-" and "+" for the open ends.
type Store interface {
	// Get returns the value at key, or errs.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Del removes the given keys; missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	// Keys returns all keys matching the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// MGet returns values for the given keys; missing keys yield "".
	MGet(ctx context.Context, keys ...string) ([]string, error)
	// Incr atomically increments the integer at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// ZAdd inserts members into the lex-sorted set at key.
	ZAdd(ctx context.Context, key string, members ...string) error
	// ZRangeByLex returns up to count members of the set in the given lex
	// range, in lexicographic order. count <= 0 means no limit.
	ZRangeByLex(ctx context.Context, key, min, max string, count int64) ([]string, error)

	// SAdd adds members to the set at key and returns how many were new.
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	// SMembers returns all members of the set at key.
	SMembers(ctx context.Context, key string) ([]string, error)

	// HIncrBy atomically adds delta to a hash field and returns the new value.
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	// HSet stores a hash field.
	HSet(ctx context.Context, key, field, value string) error
	// HGetAll returns all fields of the hash at key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Close releases the backend connection.
	Close() error
}
