package ingest

import (
	"context"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
)

// PlaceSource finds places and fetches their details.
type PlaceSource interface {
	SearchPlaces(ctx context.Context, location string, keywords []string) ([]place.Ref, error)
	GetPlaceDetails(ctx context.Context, id string) (place.Record, error)
}

// Index is the write side of the vector index.
type Index interface {
	ListIDs(ctx context.Context) (map[string]struct{}, error)
	Upsert(ctx context.Context, entries []place.Entry) error
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
