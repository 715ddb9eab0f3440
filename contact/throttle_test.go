package contact

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"
)

func TestThrottle_AllowsThenRejectsSameIP(t *testing.T) {
	store := infra.NewStore(0.02, 1)
	stats := infra.NewMemoryStatsStore()

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := Throttle(ThrottleOptions{
		Store:               store,
		Stats:               stats,
		RetryAfter:          1 * time.Second,
		AddRateLimitHeaders: true,
	})(next)

	// 1) primeira passa
	r1 := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r1.RemoteAddr = "10.0.0.1:1234"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-Throttle-RPS"); got != "0.02" {
		t.Fatalf("expected X-Throttle-RPS=0.02, got %q", got)
	}
	if got := w1.Header().Get("X-Throttle-Burst"); got != "1" {
		t.Fatalf("expected X-Throttle-Burst=1, got %q", got)
	}

	// 2) segunda deve bloquear (burst=1 e rps bem baixo)
	r2 := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r2.RemoteAddr = "10.0.0.1:1234"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}

	var body response
	if err := json.NewDecoder(w2.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.Error != codeThrottled {
		t.Fatalf("unexpected body: %+v", body)
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}

	total := stats.Total()
	if total[domain.OutcomePassed] != 1 || total[domain.OutcomeThrottled] != 1 {
		t.Fatalf("unexpected stats: %v", total)
	}
	if got := stats.ByRoute()["POST /api/contact"][domain.OutcomeThrottled]; got != 1 {
		t.Fatalf("expected throttled stat by route, got %d", got)
	}
}

func TestThrottle_SeparateBucketsPerIP(t *testing.T) {
	store := infra.NewStore(0.02, 1)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Throttle(ThrottleOptions{Store: store})(next)

	for _, addr := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", addr, w.Code)
		}
	}
}

func TestThrottle_RetryAfterRoundsUp(t *testing.T) {
	store := infra.NewStore(0.02, 1)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Throttle(ThrottleOptions{Store: store, RetryAfter: 2500 * time.Millisecond})(next)

	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, r)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("expected Retry-After=3, got %q", got)
	}
}

func TestThrottle_DisabledWithoutStore(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })
	h := Throttle(ThrottleOptions{})(next)

	for i := 0; i < 10; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	}
	if calls != 10 {
		t.Fatalf("expected all requests to pass, got %d", calls)
	}
}

type failingStats struct{}

func (failingStats) Record(context.Context, domain.StatsEvent) error {
	return io.ErrClosedPipe
}

func TestThrottle_StatsErrorsDoNotBlock(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Throttle(ThrottleOptions{Store: infra.NewStore(10, 10), Stats: failingStats{}})(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

type recordingStats struct {
	events []domain.StatsEvent
}

func (s *recordingStats) Record(_ context.Context, ev domain.StatsEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func TestThrottle_StampsStatsWithClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := &recordingStats{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Throttle(ThrottleOptions{
		Store: infra.NewStore(0.01, 1),
		Stats: stats,
		Clock: func() time.Time { return now },
	})(next)

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		r.RemoteAddr = "10.0.0.9:5555"
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	if len(stats.events) != 2 {
		t.Fatalf("expected 2 stats events, got %d", len(stats.events))
	}
	if stats.events[0].Outcome != domain.OutcomePassed || stats.events[1].Outcome != domain.OutcomeThrottled {
		t.Fatalf("unexpected outcomes: %q, %q", stats.events[0].Outcome, stats.events[1].Outcome)
	}
	for i, ev := range stats.events {
		if !ev.At.Equal(now) {
			t.Fatalf("event %d: expected At=%v, got %v", i, now, ev.At)
		}
	}
}
