package health

import "context"

// StorePinger checks vector store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// PlaceCounter reports how many places are indexed.
type PlaceCounter interface {
	Count(ctx context.Context) (int, error)
}
