package infra

import (
	"context"
	"errors"
	"maps"
	"sync"

	"contact-gateway/contact/domain"
)

// Counters agrega eventos por desfecho.
type Counters map[domain.Outcome]int64

// MemoryStatsStore guarda contadores em memória. Útil para testes e para o
// /healthz de uma instância só. Não expira nada.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	byKey   map[domain.Key]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		total:   make(Counters),
		byRoute: make(map[string]Counters),
		byKey:   make(map[domain.Key]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++

	if route := routeOf(ev); route != "" {
		bump(s.byRoute, route, ev.Outcome)
	}
	if s.trackKeys && ev.Key != "" {
		bump(s.byKey, ev.Key, ev.Outcome)
	}
	return nil
}

func bump[K comparable](m map[K]Counters, k K, o domain.Outcome) {
	c, ok := m[k]
	if !ok {
		c = make(Counters)
		m[k] = c
	}
	c[o]++
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.total)
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = maps.Clone(v)
	}
	return out
}

func (s *MemoryStatsStore) ByKey() map[domain.Key]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Key]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = maps.Clone(v)
	}
	return out
}

// MultiStats repassa o evento para todos os stores e junta os erros.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func routeOf(ev domain.StatsEvent) string {
	if ev.Method == "" && ev.Path == "" {
		return ""
	}
	if ev.Method == "" {
		return ev.Path
	}
	return ev.Method + " " + ev.Path
}
