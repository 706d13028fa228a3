// Package breaker builds the circuit breakers that guard calls to external
// collaborators (malware scanner, image storage).
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/metrics"
	"github.com/sony/gobreaker/v2"
)

// Settings tunes a breaker. Zero values fall back to the defaults below.
type Settings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

const (
	defaultConsecutiveFailures = 5
	defaultOpenTimeout         = 30 * time.Second
)

// New returns a breaker named name that reports its state to the
// circuit_breaker_state gauge and logs transitions.
func New[T any](name string, s Settings, logger logging.Logger) *gobreaker.CircuitBreaker[T] {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = defaultConsecutiveFailures
	}
	timeout := s.OpenTimeout
	if timeout == 0 {
		timeout = defaultOpenTimeout
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not the collaborator's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn(context.Background(), "circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
