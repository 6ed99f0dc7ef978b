package embedding

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatmaps/internal/domain"
)

// Role is the side of the index an embedder serves.
type Role string

const (
	// RoleDocument embeds place documents during ingestion.
	RoleDocument Role = "document"
	// RoleQuery embeds user queries at retrieval time.
	RoleQuery Role = "query"
)

// InstrumentedEmbedder logs each call once retries have settled. Per-attempt
// metrics live in transport/openai; this layer reports what the caller saw.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	logger *zap.Logger
}

// NewInstrumentedEmbedder tags every line with provider, model and role.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, role Role, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner: inner,
		logger: logger.With(
			zap.String("provider", provider),
			zap.String("model", model),
			zap.String("role", string(role)),
		),
	}
}

// Embed implements domain.Embedder. Errors pass through unwrapped. Exhausted
// retries log at warn, rejected requests at error, cancellations at debug.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	res, err := e.inner.Embed(ctx, text)
	fields := []zap.Field{
		zap.Duration("duration", time.Since(start)),
		zap.Int("text_bytes", len(text)),
	}

	switch {
	case err == nil:
		e.logger.Debug("Text embedded", append(fields,
			zap.Int("dimensions", len(res.Embedding)),
			zap.Int("total_tokens", res.TotalTokens),
		)...)
		return res, nil
	case errors.Is(err, context.Canceled):
		e.logger.Debug("Embedding canceled", fields...)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		e.logger.Warn("Embedding provider unavailable", append(fields, zap.Error(err))...)
	default:
		e.logger.Error("Embedding failed", append(fields, zap.Error(err))...)
	}
	return domain.EmbeddingResult{}, err
}
