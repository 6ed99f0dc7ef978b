package valkey

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/chatmaps/internal/db"
	"github.com/kailas-cloud/chatmaps/internal/db/redis"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store adapts the rueidis store to valkey-search, which shares the FT.CREATE/KNN
// dialect but rejects FT.SEARCH queries without a KNN clause.
type Store struct {
	*redis.Store
}

// NewStore creates a Valkey store.
func NewStore(cfg redis.Config) (*Store, error) {
	s, err := redis.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Store: s}, nil
}

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{Store: redis.NewStoreForTest(c)}
}

// SearchCount falls back to SCAN for query="*".
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	if query != "*" {
		return s.Store.SearchCount(ctx, index, query)
	}
	keys, err := s.Scan(ctx, indexToKeyPrefix(index)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan for count: %w", err)
	}
	return len(keys), nil
}

// indexToKeyPrefix converts index name to a SCAN prefix.
// "chatmaps:places:idx" -> "chatmaps:places:"
func indexToKeyPrefix(index string) string {
	if strings.HasSuffix(index, ":idx") {
		return index[:len(index)-3]
	}
	return index + ":"
}
