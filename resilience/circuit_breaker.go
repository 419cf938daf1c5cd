package resilience

import (
	"sync"
	"time"
)

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker stops attempts against a backend that fails consecutively.
// It is optional for the driver: when open, the driver skips the attempt and
// backs off instead of calling the transport.
type CircuitBreaker struct {
	mu               sync.Mutex
	name             string
	failureThreshold int
	resetTimeout     time.Duration

	consecutiveFailures int
	state               CircuitState
	reopenAt            time.Time
}

func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
		state:            CircuitClosed,
	}
}

func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if time.Now().Before(cb.reopenAt) {
			return false
		}
		cb.state = CircuitHalfOpen
	}

	return true
}

func (cb *CircuitBreaker) RecordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.consecutiveFailures = 0
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitClosed
		}
		return
	}

	cb.consecutiveFailures++
	if cb.consecutiveFailures >= cb.failureThreshold {
		cb.state = CircuitOpen
		cb.reopenAt = time.Now().Add(cb.resetTimeout)
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
