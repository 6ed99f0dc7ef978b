package retrieval

import (
	"context"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
)

// Index is the read side of the vector index.
type Index interface {
	Nearest(ctx context.Context, vector []float32, k int) ([]place.Match, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
