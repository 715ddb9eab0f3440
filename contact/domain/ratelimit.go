package domain

import (
	"context"
	"time"
)

type Key string

const (
	DefaultWindow      = 1 * time.Hour
	DefaultMaxRequests = 5
)

// WindowDecision é o resultado de uma consulta ao rate limit de janela fixa.
type WindowDecision struct {
	Allowed bool
	// Count é quantas requisições a janela atual já aceitou (após esta, se aceita).
	Count   int
	Limit   int
	ResetAt time.Time
}

func (d WindowDecision) Remaining() int {
	if r := d.Limit - d.Count; r > 0 {
		return r
	}
	return 0
}

// WindowLimiter limita envios por identificador numa janela de origem fixa:
// a janela começa na primeira chamada e não desliza.
//
// Take consome uma vaga quando permitido; quando nega, não altera o estado.
// Erro significa que o backend (ex: Redis) não respondeu.
type WindowLimiter interface {
	Take(ctx context.Context, key Key) (WindowDecision, error)
}

// Limiter decide se uma ação é permitida agora (token bucket da borda HTTP).
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave (ex: IP).
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor de Retry-After quando bloquear. Se 0, não há recomendação.
	RetryAfter time.Duration
}
