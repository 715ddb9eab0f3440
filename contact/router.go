package contact

import (
	"net/http"
	"time"

	"contact-gateway/contact/domain"
	"contact-gateway/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Gateway é o que o router usa do application.Gateway.
type Gateway interface {
	ContactSender
	HealthSource
}

type RouterOptions struct {
	Gateway     Gateway
	Log         zerolog.Logger
	CORSOrigins []string
	KeyFn       KeyFunc

	Throttle    ThrottleOptions // Store nil = desligado
	Concurrency ConcurrencyOptions

	Metrics  *Metrics            // nil = sem métricas HTTP
	Gatherer prometheus.Gatherer // nil = sem /metrics
	Outcomes func() map[domain.Outcome]int64
}

// NewRouter monta:
//
//	POST /api/contact  throttle -> concorrência -> handler
//	GET  /healthz
//	GET  /metrics
func NewRouter(opts RouterOptions) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = ClientIP("", false)
	}
	if opts.Throttle.KeyFn == nil {
		opts.Throttle.KeyFn = opts.KeyFn
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(opts.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Handler)
	}

	r.Get("/healthz", Health(opts.Gateway, opts.Outcomes))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	h := NewHandler(HandlerOptions{
		Sender: opts.Gateway,
		KeyFn:  opts.KeyFn,
		Log:    opts.Log,
	})
	r.Route("/api", func(r chi.Router) {
		r.With(
			middleware.Timeout(60*time.Second),
			Throttle(opts.Throttle),
			ConcurrencyMiddleware(opts.Concurrency),
		).Post("/contact", h.ServeHTTP)
	})

	return r
}
