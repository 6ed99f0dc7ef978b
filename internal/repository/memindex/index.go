// Package memindex is an in-process cosine index of places. It backs the "memory"
// database driver and keeps the ingestion and retrieval paths testable without a server.
package memindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/vecgo/distance"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	domplace "github.com/kailas-cloud/chatmaps/internal/domain/place"
)

type row struct {
	seq    uint64
	unit   []float32 // L2-normalized; nil for a zero vector
	fields map[string]string
}

// Index is a brute-force cosine index guarded by an RWMutex.
type Index struct {
	dim int

	mu   sync.RWMutex
	rows map[string]*row
	seq  uint64
}

// New creates an empty index for vectors of length dim.
func New(dim int) *Index {
	return &Index{dim: dim, rows: make(map[string]*row)}
}

// EnsureIndex is a no-op; the index exists from construction.
func (ix *Index) EnsureIndex(context.Context) error { return nil }

// Ping always succeeds.
func (ix *Index) Ping(context.Context) error { return nil }

// ListIDs returns a snapshot of stored ids.
func (ix *Index) ListIDs(context.Context) (map[string]struct{}, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := make(map[string]struct{}, len(ix.rows))
	for id := range ix.rows {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// Upsert stores entries; the whole batch is rejected if any vector has the wrong length.
// An id written twice keeps its original position in tie ordering.
func (ix *Index) Upsert(_ context.Context, entries []domplace.Entry) error {
	prepared := make([]*row, len(entries))
	for i := range entries {
		e := &entries[i]
		if len(e.Vector) != ix.dim {
			return fmt.Errorf("upsert %s: %w: got %d, want %d",
				e.ID, domain.ErrVectorDimMismatch, len(e.Vector), ix.dim)
		}
		unit, _ := distance.NormalizeL2Copy(e.Vector)
		prepared[i] = &row{unit: unit, fields: e.Metadata.Fields()}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, r := range prepared {
		id := entries[i].ID
		if old, ok := ix.rows[id]; ok {
			r.seq = old.seq
		} else {
			ix.seq++
			r.seq = ix.seq
		}
		ix.rows[id] = r
	}
	return nil
}

// Nearest ranks every stored row by cosine similarity to vector and returns the top k.
// Score is the cosine similarity in [-1,1]; ties keep insertion order. A zero vector scores 0.
func (ix *Index) Nearest(_ context.Context, vector []float32, k int) ([]domplace.Match, error) {
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("nearest: %w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(vector), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	query, ok := distance.NormalizeL2Copy(vector)

	type scored struct {
		id  string
		seq uint64
		sim float64
		r   *row
	}

	ix.mu.RLock()
	all := make([]scored, 0, len(ix.rows))
	for id, r := range ix.rows {
		var sim float64
		if ok && r.unit != nil {
			sim = float64(distance.Dot(query, r.unit))
		}
		all = append(all, scored{id: id, seq: r.seq, sim: sim, r: r})
	}
	ix.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].sim != all[j].sim {
			return all[i].sim > all[j].sim
		}
		return all[i].seq < all[j].seq
	})

	if len(all) > k {
		all = all[:k]
	}
	out := make([]domplace.Match, len(all))
	for i, s := range all {
		fields := make(map[string]string, len(s.r.fields))
		for key, v := range s.r.fields {
			fields[key] = v
		}
		out[i] = domplace.Match{ID: s.id, Score: max(-1, min(1, s.sim)), Fields: fields}
	}
	return out, nil
}

// Count returns the number of stored rows.
func (ix *Index) Count(context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.rows), nil
}
