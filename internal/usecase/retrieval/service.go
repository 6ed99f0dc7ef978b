package retrieval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
)

// Hit is one ranked result.
type Hit struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata place.Metadata `json:"metadata"`
}

// Service answers free-text queries with the nearest stored places.
type Service struct {
	embed Embedder
	index Index
	maxK  int
}

// New creates a retrieval service.
func New(embed Embedder, index Index) *Service {
	return &Service{embed: embed, index: index}
}

// WithMaxK caps k at maxK. 0 (the default) leaves k unbounded.
func (s *Service) WithMaxK(maxK int) *Service {
	s.maxK = max(0, maxK)
	return s
}

// Query returns up to k places ordered by descending similarity to text.
// An empty slice is a valid "no matches" answer.
func (s *Service) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text is empty: %w", domain.ErrInvalidArgument)
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d: %w", k, domain.ErrInvalidArgument)
	}
	if s.maxK > 0 {
		k = min(k, s.maxK)
	}

	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.index.Nearest(ctx, res.Embedding, k)
	if err != nil {
		if !errors.Is(err, domain.ErrVectorDimMismatch) && !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("nearest places: %w", err)
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, Hit{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: place.MetadataFromFields(m.Fields),
		})
	}
	slices.SortStableFunc(hits, func(a, b Hit) int { return cmp.Compare(b.Score, a.Score) })
	if len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}
