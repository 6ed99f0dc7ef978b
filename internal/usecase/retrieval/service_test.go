package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
	"github.com/kailas-cloud/chatmaps/internal/repository/memindex"
)

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

type mockIndex struct {
	nearestFn func(ctx context.Context, vector []float32, k int) ([]place.Match, error)
	gotK      int
}

func (m *mockIndex) Nearest(ctx context.Context, vector []float32, k int) ([]place.Match, error) {
	m.gotK = k
	return m.nearestFn(ctx, vector, k)
}

func emptyIndex() *mockIndex {
	return &mockIndex{nearestFn: func(context.Context, []float32, int) ([]place.Match, error) {
		return nil, nil
	}}
}

// seed stores vectors at fixed cosine similarity to the query {1, 0}.
func seed(t *testing.T, ix *memindex.Index, sims map[string]float32) {
	t.Helper()
	var entries []place.Entry
	for id, s := range sims {
		// (s, sqrt(1-s^2)) has cosine s with (1, 0) for any s in [-1, 1].
		y := float32(1) - s*s
		entries = append(entries, place.Entry{
			ID:       id,
			Vector:   []float32{s, float32(math.Sqrt(float64(y)))},
			Metadata: place.Metadata{Name: place.StringValue(id)},
		})
	}
	if err := ix.Upsert(context.Background(), entries); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestQuery_RankingCorrectness(t *testing.T) {
	ix := memindex.New(2)
	seed(t, ix, map[string]float32{"A": 0.9, "B": 0.5, "C": 0.1})
	svc := New(&mockEmbedder{vec: []float32{1, 0}}, ix)

	hits, err := svc.Query(context.Background(), "cozy cafe", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "A" || hits[1].ID != "B" {
		t.Fatalf("expected [A B], got %+v", hits)
	}
	if d := hits[0].Score - 0.9; d > 1e-4 || d < -1e-4 {
		t.Errorf("score A = %v, want ~0.9", hits[0].Score)
	}
}

func TestQuery_RetrievalBound(t *testing.T) {
	ix := memindex.New(2)
	seed(t, ix, map[string]float32{"A": 0.9, "B": 0.5, "C": 0.1})
	svc := New(&mockEmbedder{vec: []float32{1, 0}}, ix)

	for _, k := range []int{1, 2, 3, 4, 50} {
		hits, err := svc.Query(context.Background(), "q", k)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if want := min(3, k); len(hits) != want {
			t.Errorf("k=%d: got %d hits, want %d", k, len(hits), want)
		}
	}
}

func TestQuery_InvalidArguments(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}
	svc := New(emb, emptyIndex())

	tests := []struct {
		name string
		text string
		k    int
	}{
		{"zero k", "cafe", 0},
		{"negative k", "cafe", -3},
		{"empty text", "", 3},
		{"blank text", "  \t", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Query(context.Background(), tt.text, tt.k)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
	if emb.calls != 0 {
		t.Errorf("invalid queries must not reach the embedder, got %d calls", emb.calls)
	}
}

func TestQuery_KUnboundedByDefault(t *testing.T) {
	idx := emptyIndex()
	svc := New(&mockEmbedder{vec: []float32{1}}, idx)

	if _, err := svc.Query(context.Background(), "q", 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.gotK != 1000 {
		t.Errorf("k = %d, want 1000", idx.gotK)
	}
}

func TestQuery_ReturnsMinOfSizeAndLargeK(t *testing.T) {
	ix := memindex.New(2)
	entries := make([]place.Entry, 150)
	for i := range entries {
		id := fmt.Sprintf("p%03d", i)
		entries[i] = place.Entry{
			ID:       id,
			Vector:   []float32{1, float32(i)},
			Metadata: place.Metadata{Name: place.StringValue(id)},
		}
	}
	if err := ix.Upsert(context.Background(), entries); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	svc := New(&mockEmbedder{vec: []float32{1, 0}}, ix)

	for _, k := range []int{120, 150, 200} {
		hits, err := svc.Query(context.Background(), "cafe", k)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if want := min(150, k); len(hits) != want {
			t.Errorf("k=%d: got %d hits, want %d", k, len(hits), want)
		}
	}
}

func TestQuery_MaxKIsOptIn(t *testing.T) {
	idx := emptyIndex()
	svc := New(&mockEmbedder{vec: []float32{1}}, idx).WithMaxK(5)

	if _, err := svc.Query(context.Background(), "q", 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.gotK != 5 {
		t.Errorf("k = %d, want 5", idx.gotK)
	}

	svc.WithMaxK(0)
	if _, err := svc.Query(context.Background(), "q", 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.gotK != 1000 {
		t.Errorf("k = %d after disabling the cap, want 1000", idx.gotK)
	}
}

func TestQuery_RanksNegativeSimilarities(t *testing.T) {
	ix := memindex.New(2)
	seed(t, ix, map[string]float32{"far": -0.9, "near": -0.1, "mid": -0.5})
	svc := New(&mockEmbedder{vec: []float32{1, 0}}, ix)

	hits, err := svc.Query(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "near" || hits[1].ID != "mid" {
		t.Fatalf("expected [near mid], got %+v", hits)
	}
}

func TestQuery_EmptyIsNotAnError(t *testing.T) {
	svc := New(&mockEmbedder{vec: []float32{1}}, emptyIndex())

	hits, err := svc.Query(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", hits)
	}
}

func TestQuery_EmbeddingErrorSurfaces(t *testing.T) {
	idx := emptyIndex()
	svc := New(&mockEmbedder{err: fmt.Errorf("after 6 attempts: %w", domain.ErrEmbeddingUnavailable)}, idx)

	_, err := svc.Query(context.Background(), "q", 3)
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestQuery_StoreErrorIsStoreUnavailable(t *testing.T) {
	idx := &mockIndex{nearestFn: func(context.Context, []float32, int) ([]place.Match, error) {
		return nil, errors.New("i/o timeout")
	}}
	svc := New(&mockEmbedder{vec: []float32{1}}, idx)

	_, err := svc.Query(context.Background(), "q", 3)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestQuery_ReshapesAndReorders(t *testing.T) {
	idx := &mockIndex{nearestFn: func(context.Context, []float32, int) ([]place.Match, error) {
		return []place.Match{
			{ID: "low", Score: 0.2, Fields: map[string]string{"name": "Low", "__content": "raw text"}},
			{ID: "high", Score: 0.8, Fields: map[string]string{"name": "High", "rating": "4.5", "internal": "x"}},
			{ID: "tie", Score: 0.2, Fields: map[string]string{"name": "Tie"}},
		}, nil
	}}
	svc := New(&mockEmbedder{vec: []float32{1}}, idx)

	hits, err := svc.Query(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := []string{hits[0].ID, hits[1].ID, hits[2].ID}
	if order[0] != "high" || order[1] != "low" || order[2] != "tie" {
		t.Fatalf("order = %v, want [high low tie]", order)
	}

	md := hits[0].Metadata
	if r, ok := md.Rating.Float(); !ok || r != 4.5 {
		t.Errorf("rating = %v, want number 4.5", md.Rating)
	}
	if !md.Address.IsNA() {
		t.Errorf("missing address must be N/A, got %v", md.Address)
	}
	fields := md.Fields()
	if _, ok := fields["internal"]; ok {
		t.Error("unknown store fields must not leak")
	}
	if _, ok := hits[1].Metadata.Fields()["__content"]; ok {
		t.Error("internal store fields must not leak")
	}
}
