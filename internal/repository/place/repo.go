package place

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/chatmaps/internal/db"
	"github.com/kailas-cloud/chatmaps/internal/domain"
	domplace "github.com/kailas-cloud/chatmaps/internal/domain/place"
)

const (
	contentField = "__content"
	vectorField  = "__vector"
	scoreField   = "__vector_score"
)

// store is the consumer interface for the place index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config describes the index layout.
type Config struct {
	KeyPrefix   string // global namespace, e.g. "chatmaps:"
	Dimensions  int
	Algorithm   db.VectorAlgorithm
	M           int
	EFConstruct int
}

// Repo is the FT-backed vector index of places.
type Repo struct {
	store store
	cfg   Config
}

// New creates a place repository.
func New(s store, cfg Config) *Repo {
	if cfg.Algorithm == "" {
		cfg.Algorithm = db.VectorHNSW
	}
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndex creates the FT index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := r.indexName()
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(name).
		Prefix(r.keyPrefix()).
		TagWithSeparator(domplace.KeyTypes, ",").
		Vector(vectorField, "vector", r.cfg.Dimensions, r.cfg.Algorithm, db.DistanceCosine,
			r.cfg.M, r.cfg.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index %s: %w", name, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// ListIDs returns every stored place_id in one pass over the key space.
func (r *Repo) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	prefix := r.keyPrefix()
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("list place ids: %w", err)
	}
	ids := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		ids[strings.TrimPrefix(k, prefix)] = struct{}{}
	}
	return ids, nil
}

// Upsert writes entries in one pipelined round-trip. Last write wins per id.
func (r *Repo) Upsert(ctx context.Context, entries []domplace.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(entries))
	for i := range entries {
		e := &entries[i]
		if len(e.Vector) != r.cfg.Dimensions {
			return fmt.Errorf("upsert %s: %w: got %d, want %d",
				e.ID, domain.ErrVectorDimMismatch, len(e.Vector), r.cfg.Dimensions)
		}
		items[i] = db.HashSetItem{Key: r.key(e.ID), Fields: buildHashFields(e)}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d places: %w", len(items), err)
	}
	return nil
}

// Nearest returns up to k places closest to vector, most similar first.
func (r *Repo) Nearest(ctx context.Context, vector []float32, k int) ([]domplace.Match, error) {
	returnFields := make([]string, 0, len(domplace.Keys)+1)
	returnFields = append(returnFields, domplace.Keys...)
	returnFields = append(returnFields, scoreField)

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	prefix := r.keyPrefix()
	out := make([]domplace.Match, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, domplace.Match{
			ID:     strings.TrimPrefix(e.Key, prefix),
			Score:  e.Score,
			Fields: e.Fields,
		})
	}
	return out, nil
}

// Count returns the number of indexed places.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count places: %w", err)
	}
	return n, nil
}

func (r *Repo) keyPrefix() string { return r.cfg.KeyPrefix + "places:" }
func (r *Repo) key(id string) string { return r.keyPrefix() + id }
func (r *Repo) indexName() string { return r.cfg.KeyPrefix + "places:idx" }
