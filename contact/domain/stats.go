package domain

import (
	"context"
	"time"
)

// StatsEvent representa o desfecho de uma requisição: decisão da borda
// (throttled/passed) ou resultado do gateway (sent, rate_limited, ...).
//
// Observação: cuidado com cardinalidade ao salvar Key (IP) em Redis/Prometheus.
type StatsEvent struct {
	Key     Key
	Outcome Outcome

	Method string
	Path   string

	At time.Time
}

// StatsStore persiste estatísticas. O chamador trata erro como best-effort.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
