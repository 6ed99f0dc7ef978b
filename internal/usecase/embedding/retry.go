package embedding

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatmaps/internal/domain"
)

// Jitter selects how a computed backoff delay is randomized.
type Jitter string

const (
	// JitterFull sleeps a uniform random duration in [0, delay).
	JitterFull Jitter = "full"
	// JitterNone sleeps exactly the computed delay.
	JitterNone Jitter = "none"
)

// RetryPolicy bounds the retry loop for transient provider failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      Jitter
}

// DefaultRetryPolicy returns 6 attempts, 1s base, 20s cap, full jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 6,
		BaseDelay:   time.Second,
		MaxDelay:    20 * time.Second,
		Jitter:      JitterFull,
	}
}

// Backoff returns the capped exponential delay before the retry that follows attempt
// (1-based): min(MaxDelay, BaseDelay*2^(attempt-1)). r in [0,1) scales it under full jitter.
func (p RetryPolicy) Backoff(attempt int, r float64) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter == JitterFull {
		d = time.Duration(r * float64(d))
	}
	return d
}

// RetryOption configures a RetryingEmbedder.
type RetryOption func(*RetryingEmbedder)

// WithSleep replaces the wait between attempts (tests use it to skip real time).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryingEmbedder) { r.sleep = sleep }
}

// WithRand replaces the jitter source. rnd must return values in [0,1).
func WithRand(rnd func() float64) RetryOption {
	return func(r *RetryingEmbedder) { r.rand = rnd }
}

// WithRetryCounter counts every retry (not the first attempt).
func WithRetryCounter(c prometheus.Counter) RetryOption {
	return func(r *RetryingEmbedder) { r.retries = c }
}

// RetryingEmbedder retries transient provider failures with capped exponential backoff.
type RetryingEmbedder struct {
	inner   domain.Embedder
	policy  RetryPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	rand    func() float64
	retries prometheus.Counter
	logger  *zap.Logger
}

// NewRetryingEmbedder wraps inner. MaxAttempts below 1 is treated as 1.
func NewRetryingEmbedder(
	inner domain.Embedder, policy RetryPolicy, logger *zap.Logger, opts ...RetryOption,
) *RetryingEmbedder {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	r := &RetryingEmbedder{
		inner:  inner,
		policy: policy,
		sleep:  sleepContext,
		rand:   rand.Float64,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Embed calls inner until it succeeds, fails permanently or the attempts run out.
//
// Errors:
//   - domain.ErrEmbeddingRequest: the provider rejected the input (not retried)
//   - domain.ErrEmbeddingUnavailable: every attempt failed transiently
//   - ctx.Err(): the context ended while calling or waiting
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	for attempt := 1; ; attempt++ {
		res, err := r.inner.Embed(ctx, text)
		if err == nil {
			if attempt > 1 {
				r.logger.Debug("Embedding succeeded after retry", zap.Int("attempt", attempt))
			}
			return res, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", ctxErr)
		}
		if !errors.Is(err, domain.ErrTransientProvider) {
			return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingRequest, err)
		}
		if attempt >= r.policy.MaxAttempts {
			return domain.EmbeddingResult{}, fmt.Errorf("%w after %d attempts: %w",
				domain.ErrEmbeddingUnavailable, attempt, err)
		}

		delay := r.policy.Backoff(attempt, r.rand())
		r.logger.Warn("Embedding failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if r.retries != nil {
			r.retries.Inc()
		}

		if err := r.sleep(ctx, delay); err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed retry wait: %w", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
