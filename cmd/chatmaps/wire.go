package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatmaps/internal/config"
	"github.com/kailas-cloud/chatmaps/internal/db"
	dbRedis "github.com/kailas-cloud/chatmaps/internal/db/redis"
	dbValkey "github.com/kailas-cloud/chatmaps/internal/db/valkey"
	"github.com/kailas-cloud/chatmaps/internal/domain"
	domplace "github.com/kailas-cloud/chatmaps/internal/domain/place"
	logpkg "github.com/kailas-cloud/chatmaps/internal/logger"
	"github.com/kailas-cloud/chatmaps/internal/metrics"
	"github.com/kailas-cloud/chatmaps/internal/repository/embcache"
	"github.com/kailas-cloud/chatmaps/internal/repository/memindex"
	placerepo "github.com/kailas-cloud/chatmaps/internal/repository/place"
	openaiEmb "github.com/kailas-cloud/chatmaps/internal/transport/openai"
	"github.com/kailas-cloud/chatmaps/internal/transport/places"
	embeddinguc "github.com/kailas-cloud/chatmaps/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/chatmaps/internal/usecase/health"
	"github.com/kailas-cloud/chatmaps/internal/usecase/ingest"
	"github.com/kailas-cloud/chatmaps/internal/usecase/retrieval"
)

// placeIndex is what the services need from either index backend.
type placeIndex interface {
	EnsureIndex(ctx context.Context) error
	ListIDs(ctx context.Context) (map[string]struct{}, error)
	Upsert(ctx context.Context, entries []domplace.Entry) error
	Nearest(ctx context.Context, vector []float32, k int) ([]domplace.Match, error)
	Count(ctx context.Context) (int, error)
}

// components is the wired object graph shared by the subcommands.
type components struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	index     placeIndex
	ingest    *ingest.Service
	retrieval *retrieval.Service
	health    *healthuc.Service

	closers []func()
}

// Close releases the store connection and flushes the logger.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// bootstrap loads config for ENV and builds the full graph. Places credentials are
// checked by the commands that need them, not here.
func bootstrap(ctx context.Context) (*components, error) {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	c := &components{env: env, cfg: cfg, logger: logger}
	c.closers = append(c.closers, func() { _ = logger.Sync() })

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	store, pinger, err := c.openIndex(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: requestedDimensions(cfg.Embedding),
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.Embedding.TimeoutSec) * time.Second},
		Logger:     logger,
	})

	// Only the query chain is cached.
	var cache db.KVStore
	if cfg.Embedding.Cache.Enabled && store != nil {
		cache = store
	}
	docEmbedder := buildEmbedder(base, cfg.Embedding, embeddinguc.RoleDocument,
		cfg.Embedding.DocumentInstruction, nil, cfg.Index.KeyPrefix, logger)
	queryEmbedder := buildEmbedder(base, cfg.Embedding, embeddinguc.RoleQuery,
		cfg.Embedding.QueryInstruction, cache, cfg.Index.KeyPrefix, logger)

	source := places.NewClient(&places.Config{
		APIKey:            cfg.Places.APIKey,
		BaseURL:           cfg.Places.BaseURL,
		PerKeywordLimit:   cfg.Places.PerKeywordLimit,
		RequestsPerSecond: cfg.Places.RequestsPerSecond,
		PageTokenDelay:    cfg.Places.PageTokenDelay(),
		HTTPClient:        &http.Client{Timeout: time.Duration(cfg.Places.TimeoutSec) * time.Second},
		Logger:            logger,
	})

	c.ingest = ingest.New(source, c.index, docEmbedder, logger).
		WithKeywords(cfg.Places.Keywords).
		WithConcurrency(cfg.Ingest.Concurrency)
	c.retrieval = retrieval.New(queryEmbedder, c.index).WithMaxK(cfg.Index.MaxK)
	c.health = healthuc.New(pinger, base).WithPlaceCounter(c.index)

	logger.Info("Components ready",
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
	return c, nil
}

// openIndex selects the index backend. The returned store is nil for the memory driver.
func (c *components) openIndex(ctx context.Context) (db.Store, db.Pinger, error) {
	cfg := c.cfg

	if cfg.Database.Driver == config.DriverMemory {
		ix := memindex.New(cfg.Embedding.Dimensions)
		c.index = ix
		c.logger.Warn("Using in-memory index; data is lost on exit")
		return nil, ix, nil
	}

	var (
		store db.Store
		err   error
	)
	connCfg := dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	}
	switch cfg.Database.Driver {
	case config.DriverValkey:
		store, err = dbValkey.NewStore(connCfg)
	case config.DriverRedis:
		store, err = dbRedis.NewStore(connCfg)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}
	c.closers = append(c.closers, store.Close)

	if err := db.WaitReady(ctx, store, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}

	algo, err := db.ParseVectorAlgorithm(cfg.Index.Algorithm)
	if err != nil {
		return nil, nil, fmt.Errorf("index algorithm: %w", err)
	}
	repo := placerepo.New(store, placerepo.Config{
		KeyPrefix:   cfg.Index.KeyPrefix,
		Dimensions:  cfg.Embedding.Dimensions,
		Algorithm:   algo,
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := repo.EnsureIndex(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure index: %w", err)
	}
	c.index = repo
	c.logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	return store, store, nil
}

// buildEmbedder assembles the decorator chain:
// Instruction -> Instrumented -> Retrying -> [Cached] -> DimensionGuard -> provider.
func buildEmbedder(
	base domain.Embedder,
	cfg config.EmbeddingConfig,
	role embeddinguc.Role,
	instruction string,
	cache db.KVStore,
	keyPrefix string,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = domain.NewDimensionGuard(base, cfg.Dimensions)
	if cache != nil {
		embedder = embcache.New(embedder, cache, embcache.Options{
			KeyPrefix: keyPrefix,
			Model:     cfg.Model,
			TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewRetryingEmbedder(embedder, retryPolicy(cfg.Retry), logger,
		embeddinguc.WithRetryCounter(metrics.EmbeddingRetriesTotal.WithLabelValues(cfg.Provider)),
	)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, role, logger)

	// Instruction prefix (outermost, so the cache key includes it)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func retryPolicy(rc config.RetryConfig) embeddinguc.RetryPolicy {
	p := embeddinguc.RetryPolicy{
		MaxAttempts: rc.MaxAttempts,
		BaseDelay:   time.Duration(rc.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(rc.MaxDelayMs) * time.Millisecond,
		Jitter:      embeddinguc.JitterFull,
	}
	if rc.Jitter == "none" {
		p.Jitter = embeddinguc.JitterNone
	}
	return p
}

// requestedDimensions returns the dimensions parameter for the provider request.
// Only the text-embedding-3 family accepts it; older models reject the field.
func requestedDimensions(cfg config.EmbeddingConfig) int {
	if strings.HasPrefix(cfg.Model, "text-embedding-3") {
		return cfg.Dimensions
	}
	return 0
}
