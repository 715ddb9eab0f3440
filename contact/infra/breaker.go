package infra

import (
	"sync"
	"time"

	"contact-gateway/contact/domain"
)

// CircuitBreaker corta as chamadas ao provedor depois de `threshold` falhas
// consecutivas. Fecha de novo na primeira consulta feita após `timeout`
// contado da última falha.
type CircuitBreaker struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	open        bool

	threshold int
	timeout   time.Duration
	now       func() time.Time
	observer  func(domain.BreakerState)
}

type BreakerOption func(*CircuitBreaker)

func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *CircuitBreaker) { b.now = now }
}

// WithBreakerObserver é chamado (fora do lock) a cada abertura/fechamento.
func WithBreakerObserver(fn func(domain.BreakerState)) BreakerOption {
	return func(b *CircuitBreaker) { b.observer = fn }
}

func NewCircuitBreaker(threshold int, timeout time.Duration, opts ...BreakerOption) *CircuitBreaker {
	if threshold <= 0 {
		threshold = domain.DefaultBreakerThreshold
	}
	if timeout <= 0 {
		timeout = domain.DefaultBreakerTimeout
	}
	b := &CircuitBreaker{
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow implementa domain.Breaker.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return true
	}
	if b.now().Sub(b.lastFailure) <= b.timeout {
		b.mu.Unlock()
		return false
	}

	b.open = false
	b.failures = 0
	st := b.stateLocked()
	b.mu.Unlock()

	b.notify(st)
	return true
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	b.failures++
	b.lastFailure = b.now()

	opened := false
	if b.failures >= b.threshold && !b.open {
		b.open = true
		opened = true
	}
	st := b.stateLocked()
	b.mu.Unlock()

	if opened {
		b.notify(st)
	}
}

// RecordSuccess zera só o contador; open e lastFailure ficam como estão.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

func (b *CircuitBreaker) State() domain.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *CircuitBreaker) Threshold() int         { return b.threshold }
func (b *CircuitBreaker) Timeout() time.Duration { return b.timeout }

func (b *CircuitBreaker) stateLocked() domain.BreakerState {
	return domain.BreakerState{
		Open:            b.open,
		Failures:        b.failures,
		LastFailureTime: b.lastFailure,
	}
}

func (b *CircuitBreaker) notify(st domain.BreakerState) {
	if b.observer != nil {
		b.observer(st)
	}
}
