package infra

import (
	"time"

	"github.com/sony/gobreaker"
)

// newProviderBreaker builds the per-provider circuit breaker. Five
// consecutive failures open the circuit; it half-opens after 30s.
func newProviderBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
