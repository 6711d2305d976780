package queue

import (
	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// PublishCircuitBreaker guards result publishing so a failing broker is not
// hammered by every worker at once.
type PublishCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewPublishCircuitBreaker returns nil when the breaker is disabled; a nil
// breaker executes calls directly.
func NewPublishCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *PublishCircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &PublishCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Execute runs fn with circuit breaker protection
func (cb *PublishCircuitBreaker) Execute(fn func() error) error {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	_, err := cb.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// GetStats returns circuit breaker statistics
func (cb *PublishCircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *PublishCircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
