package infra

import (
	"context"
	"sync"
	"time"

	"contact-gateway/contact/domain"
)

// WindowStore é o rate limit de janela fixa em memória.
//
// O read-modify-write de cada registro acontece sob o mesmo lock, então
// requisições concorrentes do mesmo IP não se perdem na contagem.
// Registros vencidos são trocados no próximo acesso e removidos pelo janitor.
type WindowStore struct {
	mu      sync.Mutex
	entries map[domain.Key]*windowEntry

	window       time.Duration
	limit        int
	cleanupEvery time.Duration
	now          func() time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

type WindowOption func(*WindowStore)

func WithWindowClock(now func() time.Time) WindowOption {
	return func(s *WindowStore) { s.now = now }
}

func WithWindowCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

func NewWindowStore(window time.Duration, limit int, opts ...WindowOption) *WindowStore {
	if window <= 0 {
		window = domain.DefaultWindow
	}
	if limit <= 0 {
		limit = domain.DefaultMaxRequests
	}
	s := &WindowStore{
		entries:      make(map[domain.Key]*windowEntry),
		window:       window,
		limit:        limit,
		cleanupEvery: 5 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take implementa domain.WindowLimiter. Nunca retorna erro.
func (s *WindowStore) Take(_ context.Context, key domain.Key) (domain.WindowDecision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || now.After(ent.resetAt) {
		ent = &windowEntry{count: 1, resetAt: now.Add(s.window)}
		s.entries[key] = ent
		return s.decision(true, ent), nil
	}

	if ent.count >= s.limit {
		return s.decision(false, ent), nil
	}

	ent.count++
	return s.decision(true, ent), nil
}

func (s *WindowStore) decision(allowed bool, ent *windowEntry) domain.WindowDecision {
	return domain.WindowDecision{
		Allowed: allowed,
		Count:   ent.count,
		Limit:   s.limit,
		ResetAt: ent.resetAt,
	}
}

func (s *WindowStore) Window() time.Duration { return s.window }
func (s *WindowStore) Limit() int            { return s.limit }

// Len retorna quantos registros estão em memória (inclui vencidos ainda não varridos).
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove os registros cuja janela já fechou.
func (s *WindowStore) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ent := range s.entries {
		if now.After(ent.resetAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor inicia uma goroutine que varre registros vencidos periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, func() { s.Cleanup() })
}

// DoneContext é o mínimo necessário para aceitar context.Context nos janitors.
type DoneContext interface {
	Done() <-chan struct{}
}

func startJanitor(ctx DoneContext, every time.Duration, sweep func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				sweep()
			}
		}
	}()
}
