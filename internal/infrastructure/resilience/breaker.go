package resilience

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerConfig tunes a circuit breaker. Zero values fall back to 3
// consecutive failures and a 30s open period.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
	// IsSuccessful classifies an error as a success for counting purposes;
	// nil counts every error as a failure.
	IsSuccessful func(err error) bool
}

// NewCircuitBreaker builds a breaker that opens after MaxFailures consecutive
// failures and lets three probe requests through once half-open.
func NewCircuitBreaker(name string, cfg BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}
