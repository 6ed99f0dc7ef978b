package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/chatmaps/internal/db"
)

var _ db.Store = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store talks to Redis 8+ with the query engine loaded. The valkey package
// embeds it and patches the few commands valkey-search answers differently.
type Store struct {
	client rueidis.Client
}

// NewStore connects to cfg.Addrs. Client-side caching is off since every read
// is either a scan or a search.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		// FT.SEARCH replies are parsed as RESP2 arrays.
		AlwaysRESP2: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %s: %w", strings.Join(cfg.Addrs, ","), err)
	}
	return &Store{client: client}, nil
}

// Ping implements db.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.client.Close() }

// ft sends an FT.* command, which the typed builder does not cover for every server.
func (s *Store) ft(ctx context.Context, name string, args ...string) rueidis.RedisResult {
	return s.client.Do(ctx, s.client.B().Arbitrary(name).Args(args...).Build())
}

// serverSays reports whether err is a server reply whose text contains any of msgs.
func serverSays(err error, msgs ...string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	text := strings.ToLower(re.Error())
	for _, m := range msgs {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
