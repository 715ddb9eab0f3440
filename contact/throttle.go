package contact

import (
	"net/http"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
)

// ThrottleOptions configura o token bucket por IP na frente do gateway.
// Ele corta rajadas (bots) antes do rate limit de janela, que é por hora.
type ThrottleOptions struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	// Clock carimba os eventos de stats (default time.Now).
	Clock func() time.Time
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

func Throttle(opts ThrottleOptions) func(next http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientIP("", false)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	svc := application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Key(opts.KeyFn(r))

			if opts.AddRateLimitHeaders {
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-Throttle-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-Throttle-Burst", formatInt(ri.Burst()))
				}
			}

			dec := svc.Decide(key)
			if opts.Stats != nil {
				outcome := domain.OutcomePassed
				if !dec.Allowed {
					outcome = domain.OutcomeThrottled
				}
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     key,
					Outcome: outcome,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      opts.Clock(),
				})
			}
			if !dec.Allowed {
				w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter))
				writeError(w, r, http.StatusTooManyRequests, codeThrottled, msgThrottled)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
