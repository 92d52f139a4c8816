package backend

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Endpoint failing, calls refused
	stateHalfOpen                     // One trial call allowed
)

func (s circuitState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// circuitBreaker tracks consecutive failures per backend operation and stops
// calling an operation that keeps failing.
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	logger           *slog.Logger
	now              func() time.Time
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(threshold int, openDuration time.Duration, logger *slog.Logger) *circuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openDuration <= 0 {
		openDuration = 30 * time.Second
	}
	return &circuitBreaker{
		failureThreshold: threshold,
		openDuration:     openDuration,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		logger:           logger,
		now:              time.Now,
	}
}

// canAttempt reports whether op may be called. An open circuit moves to
// half-open once openDuration has passed since the last failure.
func (cb *circuitBreaker) canAttempt(op string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.getState(op) != stateOpen {
		return nil
	}

	lastFail := cb.lastFailure[op]
	if cb.now().Sub(lastFail) > cb.openDuration {
		cb.setState(op, stateHalfOpen)
		return nil
	}

	return fmt.Errorf("%s: %w (failures: %d, next retry: %s)",
		op,
		ErrCircuitOpen,
		cb.failures[op],
		lastFail.Add(cb.openDuration).Format("15:04:05"))
}

// recordSuccess resets failure tracking for op
func (cb *circuitBreaker) recordSuccess(op string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	delete(cb.failures, op)
	delete(cb.lastFailure, op)
	cb.setState(op, stateClosed)
}

// recordFailure counts a failed call and opens the circuit at the threshold.
// A failure while half-open reopens immediately.
func (cb *circuitBreaker) recordFailure(op string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[op]++
	cb.lastFailure[op] = cb.now()
	failCount := cb.failures[op]

	if failCount >= cb.failureThreshold || cb.getState(op) == stateHalfOpen {
		if cb.getState(op) != stateOpen {
			cb.logger.Warn("opening backend circuit",
				"operation", op,
				"failures", failCount,
				"error", err)
		}
		cb.state[op] = stateOpen
		return
	}

	cb.logger.Debug("backend call failed",
		"operation", op,
		"failures", failCount,
		"threshold", cb.failureThreshold,
		"error", err)
}

// getState returns the current state (must be called with lock held)
func (cb *circuitBreaker) getState(op string) circuitState {
	if state, exists := cb.state[op]; exists {
		return state
	}
	return stateClosed
}

// setState records a transition (must be called with lock held)
func (cb *circuitBreaker) setState(op string, next circuitState) {
	prev := cb.getState(op)
	cb.state[op] = next
	if prev != next {
		cb.logger.Info("backend circuit state changed",
			"operation", op,
			"from", prev,
			"to", next)
	}
}
