// Package breaker guards calls into remote model services with a circuit
// breaker, so a dead translation or embedding endpoint fails the remaining
// sentences fast instead of timing out on each one.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/xamr/internal/logger"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = gobreaker.ErrOpenState

// Settings configures a Breaker
type Settings struct {
	Name                string
	ConsecutiveFailures uint32        // trips after this many failures in a row
	Cooldown            time.Duration // time spent open before a trial call
}

// DefaultSettings returns settings suited to per-sentence model calls
func DefaultSettings(name string) Settings {
	return Settings{
		Name:                name,
		ConsecutiveFailures: 5,
		Cooldown:            30 * time.Second,
	}
}

// Breaker wraps a gobreaker.CircuitBreaker
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker from settings
func New(s Settings) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	threshold := s.ConsecutiveFailures

	return &Breaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        s.Name,
			MaxRequests: 1,
			Timeout:     s.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
			IsSuccessful: func(err error) bool {
				// caller cancellation says nothing about the remote side
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// State reports the breaker state as "closed", "half-open" or "open"
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Call runs fn through the breaker
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn()
	}

	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}
