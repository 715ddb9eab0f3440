package domain

import "time"

const (
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 5 * time.Minute
)

// Breaker protege o provedor de e-mail. Só existem dois estados (fechado/aberto);
// a volta para fechado é avaliada sob demanda em Allow, sem timer.
type Breaker interface {
	Allow() bool
	RecordFailure()
	RecordSuccess()
	State() BreakerState
}

type BreakerState struct {
	Open            bool      `json:"open"`
	Failures        int       `json:"failures"`
	LastFailureTime time.Time `json:"lastFailureTime,omitzero"`
}
