// Package circuit implements a per-source circuit breaker for the AQA
// source adapters, built on github.com/sony/gobreaker. Each of the
// three source hosts (FRED, NYFed, OFR) gets its own breaker so that
// one host's outage does not trip retries against the other two.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Config configures a single breaker. FailureThreshold is set to the
// source adapter's own retry attempt count (3) so a breaker trips
// exactly when a host has exhausted its retry budget once already;
// Timeout mirrors the fixed 120s top of the backoff schedule so a
// half-open probe aligns with the adapter's own next-run cadence.
type Config struct {
	FailureThreshold int
	Timeout          time.Duration
	RequestTimeout   time.Duration
}

// DefaultConfig matches the AQA source adapter's retry policy: 3
// consecutive failures trips the breaker, a 10s per-request timeout,
// and a recovery window equal to the top of the 30/60/120s backoff
// schedule.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		Timeout:          120 * time.Second,
		RequestTimeout:   10 * time.Second,
	}
}

// Manager owns one gobreaker.CircuitBreaker per source name.
type Manager struct {
	mu             sync.RWMutex
	breakers       map[string]*gobreaker.CircuitBreaker
	requestTimeout map[string]time.Duration
}

// NewManager creates an empty breaker manager.
func NewManager() *Manager {
	return &Manager{
		breakers:       make(map[string]*gobreaker.CircuitBreaker),
		requestTimeout: make(map[string]time.Duration),
	}
}

// AddSource registers a gobreaker.CircuitBreaker for the named source
// host, tripping after config.FailureThreshold consecutive failures
// and recovering after config.Timeout.
func (m *Manager) AddSource(name string, config Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	threshold := uint32(config.FailureThreshold)
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}
	m.breakers[name] = gobreaker.NewCircuitBreaker(settings)
	m.requestTimeout[name] = config.RequestTimeout
}

// IsOpen reports whether err is the sentinel gobreaker returns when a
// call was rejected because the breaker is open or probing half-open
// capacity, as opposed to an error returned by fn itself.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Call runs fn through the named source's breaker, bounding fn by that
// source's configured per-request timeout. If no breaker has been
// registered for source, fn runs directly with no timeout override.
func (m *Manager) Call(ctx context.Context, source string, fn func(ctx context.Context) error) error {
	m.mu.RLock()
	breaker, ok := m.breakers[source]
	timeout := m.requestTimeout[source]
	m.mu.RUnlock()

	if !ok {
		return fn(ctx)
	}

	_, err := breaker.Execute(func() (interface{}, error) {
		timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return nil, fn(timeoutCtx)
	})
	return err
}
