package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed is the normal operating state.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests immediately after repeated failures.
	CircuitOpen
	// CircuitHalfOpen allows probe requests to test recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected because the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreakerConfig controls circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Service names the guarded inference service in log output.
	Service string
	// FailureThreshold is the number of consecutive failures before opening.
	// Default: 5.
	FailureThreshold int
	// ResetTimeout is how long the circuit stays open before half-open.
	// Default: 30s.
	ResetTimeout time.Duration
}

// CircuitBreaker guards one inference service. A provider whose breaker is
// open fails fast instead of burning its fan-out timeout on a dead service.
type CircuitBreaker struct {
	cfg   CircuitBreakerConfig
	mu    sync.Mutex
	state CircuitState

	consecutiveFailures int
	lastFailureTime     time.Time

	nowFunc func() time.Time // injectable for tests
}

// NewCircuitBreaker creates a circuit breaker with the given config.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		cfg:     cfg,
		state:   CircuitClosed,
		nowFunc: time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (cb *CircuitBreaker) WithNow(now func() time.Time) *CircuitBreaker {
	cb.nowFunc = now
	return cb
}

// State returns the current state, honoring reset timeout transitions.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

func (cb *CircuitBreaker) currentState() CircuitState {
	if cb.state == CircuitOpen && cb.nowFunc().Sub(cb.lastFailureTime) >= cb.cfg.ResetTimeout {
		cb.state = CircuitHalfOpen
	}
	return cb.state
}

// Execute runs fn through the circuit breaker. Returns ErrCircuitOpen if
// the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	cb.mu.Lock()
	if cb.currentState() == CircuitOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state != CircuitClosed {
			zap.L().Info("circuit breaker closed",
				zap.String("service", cb.cfg.Service),
			)
		}
		cb.consecutiveFailures = 0
		cb.state = CircuitClosed
		return
	}

	cb.consecutiveFailures++
	cb.lastFailureTime = cb.nowFunc()
	if cb.state == CircuitHalfOpen || cb.consecutiveFailures >= cb.cfg.FailureThreshold {
		if cb.state != CircuitOpen {
			zap.L().Warn("circuit breaker opened",
				zap.String("service", cb.cfg.Service),
				zap.Int("consecutive_failures", cb.consecutiveFailures),
			)
		}
		cb.state = CircuitOpen
	}
}
