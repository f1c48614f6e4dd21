// Package db defines the storage facade the repositories are written
// against. Drivers live in subpackages (redis, badger).
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers should depend on the narrow sub-interfaces instead.
type Store interface {
	Pinger
	KVStore
	SetStore
	Scanner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SetStore provides string-set operations, used for secondary indexes.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Scanner lists keys matching a pattern. Patterns are a key prefix followed
// by "*"; that is the only glob shape the drivers are required to support.
// Results are returned in lexicographic key order.
type Scanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
}
