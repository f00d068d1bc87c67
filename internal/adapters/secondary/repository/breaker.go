package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/metrics"
)

// BreakerSettings mirror gobreaker's knobs that we expose through config.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// Breaker sits between the repositories and Postgres. When it is open,
// calls fail fast with domain.ErrUpstreamUnavailable.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

func NewBreaker(name string, s BreakerSettings) *Breaker {
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isInfraFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("⚡ Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Breaker{cb: cb, name: name}
}

// State exposes the current state for health reporting.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// execute runs fn through the breaker. fn must already return domain errors.
func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%s: %w", b.name, domain.ErrUpstreamUnavailable)
	}
	if err != nil {
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// exec is execute for calls that only return an error.
func exec(b *Breaker, fn func() error) error {
	_, err := execute(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
