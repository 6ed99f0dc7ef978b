package db

import (
	"context"
	"fmt"
	"time"
)

// readyPollInterval is how often WaitReady pings.
const readyPollInterval = 100 * time.Millisecond

// WaitReady pings p until it answers or timeout elapses. The last ping error is
// joined to the deadline error.
func WaitReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	var last error
	for {
		if last = p.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("store not ready after %s: %w (last ping: %w)", timeout, ctx.Err(), last)
		case <-ticker.C:
		}
	}
}
