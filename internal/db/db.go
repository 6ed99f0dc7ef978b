// Package db describes the Redis-compatible commands chatmaps needs: place HASH
// writes, key scans, cached blobs and the FT vector index.
package db

import (
	"context"
	"time"
)

// Store is implemented by the redis and valkey drivers. Consumers declare the
// narrow subset they use.
type Store interface {
	Pinger
	PlaceWriter
	KVStore
	IndexManager
	Searcher
	Close()
}

// Pinger reports whether the server answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one HASH key and the fields written to it.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// PlaceWriter writes place HASHes and lists stored keys by glob pattern.
type PlaceWriter interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore holds opaque values such as cached embeddings.
// Put with ttl <= 0 stores the value without expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager creates the FT index and checks for it.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs KNN and count queries against an FT index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
