package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/scribeworks/meetingd/internal/config"
)

// BreakerState is the circuit breaker's current mode
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// probeLimit is how many trial calls are admitted while half-open. The
// breaker closes again only after that many consecutive successes.
const probeLimit = 3

// Breaker guards one external collaborator. After maxFailures consecutive
// failures it rejects calls outright; once resetTimeout has passed it admits
// a few probe calls to test recovery.
type Breaker struct {
	service      string
	maxFailures  int
	resetTimeout time.Duration

	mu             sync.Mutex
	state          BreakerState
	failures       int
	probes         int
	probeSuccesses int
	openedAt       time.Time
}

// NewBreaker builds a breaker for the named collaborator from the loaded
// configuration
func NewBreaker(service string, cfg *config.Config) *Breaker {
	return newBreaker(service,
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second)
}

func newBreaker(service string, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		service:      service,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
}

// Call runs fn under the breaker. Rejected calls fail immediately without
// reaching the collaborator.
func (b *Breaker) Call(fn func() error) error {
	if !b.admit() {
		return fmt.Errorf("%s circuit breaker is open", b.service)
	}

	err := fn()
	b.observe(err == nil)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true

	case BreakerOpen:
		if time.Since(b.openedAt) >= b.resetTimeout {
			b.state = BreakerHalfOpen
			b.probes = 1
			b.probeSuccesses = 0
			return true
		}
		return false

	case BreakerHalfOpen:
		if b.probes < probeLimit {
			b.probes++
			return true
		}
		return false
	}

	return false
}

func (b *Breaker) observe(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		switch b.state {
		case BreakerClosed:
			b.failures = 0
		case BreakerHalfOpen:
			b.probeSuccesses++
			if b.probeSuccesses >= probeLimit {
				b.state = BreakerClosed
				b.failures = 0
			}
		}
		return
	}

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.maxFailures {
			b.state = BreakerOpen
			b.openedAt = time.Now()
		}

	case BreakerHalfOpen:
		// One failed probe reopens the circuit
		b.state = BreakerOpen
		b.openedAt = time.Now()
	}
}

// State returns the breaker's current mode
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.probes = 0
	b.probeSuccesses = 0
}
