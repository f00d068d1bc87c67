package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

// readWithRetry retries a read exactly once when the store is unavailable.
// Writes never go through here.
func readWithRetry[T any](ctx context.Context, backoff time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !errors.Is(err, domain.ErrUpstreamUnavailable) {
		return v, err
	}

	slog.Warn("Upstream unavailable, retrying read once", "op", op, "backoff", backoff, "error", err)

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	case <-timer.C:
	}

	return fn(ctx)
}
