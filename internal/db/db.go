// Package db defines the storage contract the repositories are written against.
// The only implementation is internal/db/redis.
package db

import (
	"context"
	"time"
)

// Store is everything the process needs from the backing store.
// Repositories depend on the narrow interfaces below, not on Store.
//
//nolint:interfacebloat // composition root only
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// Pinger reports whether the store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one hash to write in a pipelined batch.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore keeps entities as flat string hashes.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore keeps opaque blobs with an expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager creates and removes FT indexes.
type IndexManager interface {
	CreateIndex(ctx context.Context, schema *Schema) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher queries an FT index with a structured filter.
type Searcher interface {
	SearchFiltered(ctx context.Context, q *FilterQuery) (*SearchResult, error)
}
