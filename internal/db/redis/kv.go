package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/chatmaps/internal/db"
)

// Get implements db.KVStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Target: key, Err: err}
	}
	return data, nil
}

// Put implements db.KVStore; ttl <= 0 keeps the value until it is overwritten.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	v := rueidis.BinaryString(value)
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = s.client.B().Set().Key(key).Value(v).Ex(ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(key).Value(v).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Target: key, Err: err}
	}
	return nil
}
