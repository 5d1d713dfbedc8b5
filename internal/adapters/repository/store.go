// Package repository defines the key-value store contract the game runs on.
//
// The store is modeled after an external ordered-map service (Redis-like):
// strings with TTLs, hashes, sorted sets, plain sets, capped lists, and a
// read-only pipeline. Single-key operations are atomic; nothing spanning
// multiple keys is transactional, and callers are expected to deal with that.
package repository

import (
	"context"
	"time"
)

// SetOptions carries optional arguments for Set.
type SetOptions struct {
	// TTL expires the key after the given duration when positive.
	TTL time.Duration
	// IfNotExists makes Set a no-op returning false when the key exists.
	IfNotExists bool
}

// SetOption applies an optional argument to Set.
type SetOption func(*SetOptions)

// WithTTL sets an expiry on the written key.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *SetOptions) {
		if ttl > 0 {
			o.TTL = ttl
		}
	}
}

// IfNotExists turns Set into set-if-absent (NX).
func IfNotExists() SetOption {
	return func(o *SetOptions) {
		o.IfNotExists = true
	}
}

// Result is one slot of a pipeline execution. Only the field matching the
// queued command is populated.
type Result struct {
	Value string
	Found bool
	Hash  map[string]string
	List  []string
	Rank  int
}

// Pipeline batches read commands into one round trip, preserving order.
type Pipeline interface {
	Get(key string)
	HGet(key, field string)
	HGetAll(key string)
	LRange(key string, start, stop int)
	ZRevRank(key, member string)

	// Exec runs the queued commands and returns one Result per command.
	Exec(ctx context.Context) ([]Result, error)
}

// Store provides the primitive operation set the game is written against.
type Store interface {
	// Strings.
	Get(ctx context.Context, key string) (string, bool, error)
	MGet(ctx context.Context, keys ...string) ([]string, error)
	Set(ctx context.Context, key, value string, opts ...SetOption) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, bool, error)

	// Hashes.
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	// Sorted sets.
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZCard(ctx context.Context, key string) (int, error)
	ZRange(ctx context.Context, key string, start, stop int) ([]string, error)
	ZRevRange(ctx context.Context, key string, start, stop int) ([]string, error)
	ZRevRank(ctx context.Context, key, member string) (int, bool, error)
	ZRem(ctx context.Context, key, member string) error

	// Sets.
	SAdd(ctx context.Context, key, member string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key, member string) error

	// Lists.
	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int) error
	LRange(ctx context.Context, key string, start, stop int) ([]string, error)

	// Pipeline returns a fresh read pipeline.
	Pipeline() Pipeline

	// FlushAll wipes every key. Destructive; gated at the API layer.
	FlushAll(ctx context.Context) error
}
