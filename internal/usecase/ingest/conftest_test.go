package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
)

type mockSource struct {
	searchFn  func(ctx context.Context, location string, keywords []string) ([]place.Ref, error)
	detailsFn func(ctx context.Context, id string) (place.Record, error)

	mu           sync.Mutex
	detailsCalls []string
}

func (m *mockSource) SearchPlaces(ctx context.Context, location string, keywords []string) ([]place.Ref, error) {
	return m.searchFn(ctx, location, keywords)
}

func (m *mockSource) GetPlaceDetails(ctx context.Context, id string) (place.Record, error) {
	m.mu.Lock()
	m.detailsCalls = append(m.detailsCalls, id)
	m.mu.Unlock()
	if m.detailsFn != nil {
		return m.detailsFn(ctx, id)
	}
	return record(id), nil
}

type mockIndex struct {
	listIDsFn func(ctx context.Context) (map[string]struct{}, error)
	upsertFn  func(ctx context.Context, entries []place.Entry) error

	upserts [][]place.Entry
}

func (m *mockIndex) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	if m.listIDsFn != nil {
		return m.listIDsFn(ctx)
	}
	return map[string]struct{}{}, nil
}

func (m *mockIndex) Upsert(ctx context.Context, entries []place.Entry) error {
	m.upserts = append(m.upserts, entries)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, entries)
	}
	return nil
}

// textEmbedder maps text to a vector via fn; safe for concurrent use.
type textEmbedder struct {
	fn    func(text string) ([]float32, error)
	mu    sync.Mutex
	calls int
}

func (e *textEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	vec, err := e.fn(text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func constEmbedder() *textEmbedder {
	return &textEmbedder{fn: func(string) ([]float32, error) { return []float32{1, 0}, nil }}
}

func record(id string) place.Record {
	return place.Record{PlaceID: id, Name: "Place " + id, FormattedAddress: id + " Main St"}
}

func refs(ids ...string) []place.Ref {
	out := make([]place.Ref, len(ids))
	for i, id := range ids {
		out[i] = place.Ref{ID: id, Name: fmt.Sprintf("Place %s", id)}
	}
	return out
}

func staticSearch(ids ...string) func(context.Context, string, []string) ([]place.Ref, error) {
	return func(context.Context, string, []string) ([]place.Ref, error) {
		return refs(ids...), nil
	}
}
