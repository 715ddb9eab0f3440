package application

import (
	"testing"
	"time"

	"contact-gateway/contact/domain"
)

type fakeLimiter struct {
	allow bool
}

func (f fakeLimiter) Allow() bool { return f.allow }

type fakeStore struct {
	lim  domain.Limiter
	seen []domain.Key
}

func (s *fakeStore) Get(k domain.Key) domain.Limiter {
	s.seen = append(s.seen, k)
	return s.lim
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	dec := Service{}.Decide("203.0.113.7")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_AllowsWhenStoreHasNoLimiter(t *testing.T) {
	store := &fakeStore{}
	dec := Service{Store: store}.Decide("203.0.113.7")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if len(store.seen) != 1 || store.seen[0] != "203.0.113.7" {
		t.Fatalf("expected store lookup by ip, got %v", store.seen)
	}
}

func TestService_Decide_BlocksWithDefaultRetryAfter(t *testing.T) {
	dec := Service{Store: &fakeStore{lim: fakeLimiter{allow: false}}}.Decide("203.0.113.7")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != time.Second {
		t.Fatalf("expected default RetryAfter=1s, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_BlocksWithConfiguredRetryAfter(t *testing.T) {
	svc := Service{Store: &fakeStore{lim: fakeLimiter{allow: false}}, RetryAfter: 30 * time.Second}
	dec := svc.Decide("203.0.113.7")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 30*time.Second {
		t.Fatalf("expected RetryAfter=30s, got %s", dec.RetryAfter)
	}
}
