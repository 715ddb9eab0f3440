package contact

import (
	"context"
	"fmt"
	"time"

	"contact-gateway/config"
	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Components é o gateway montado a partir da configuração, com tudo que
// os binários precisam ligar/desligar.
type Components struct {
	Gateway *application.Gateway
	Breaker *infra.CircuitBreaker
	Limiter domain.WindowLimiter
	Edge    *infra.Store // nil quando o throttle da borda está desligado
	Stats   *infra.MemoryStatsStore
	Metrics *infra.PrometheusStats // nil sem Registerer

	// stats é o fan-out usado por gateway e throttle.
	stats domain.StatsStore
	rdb   *redis.Client
	// janitors rodam até o ctx de Start encerrar.
	janitors []func(infra.DoneContext)
}

// Build liga config -> infra -> application. reg pode ser nil (ex: CLI).
//
// Retorna domain.ErrMissingAPIKey / ErrMissingSMTPHost quando o provedor
// não tem credencial fora do modo de teste.
func Build(cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*Components, error) {
	c := &Components{Stats: infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Stats.TrackKeys))}

	if cfg.UsesRedis() {
		rdb, err := dialRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		c.rdb = rdb
	}

	if reg != nil {
		c.Metrics = infra.NewPrometheusStats(reg)
	}

	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		c.Limiter = infra.NewRedisWindowLimiter(c.rdb, cfg.RateLimit.Window, cfg.RateLimit.Max,
			infra.WithWindowPrefix(cfg.RateLimit.Prefix))
	default:
		mem := infra.NewWindowStore(cfg.RateLimit.Window, cfg.RateLimit.Max)
		c.Limiter = mem
		c.janitors = append(c.janitors, mem.StartJanitor)
	}

	breakerLog := log.With().Str("component", "circuit_breaker").Logger()
	c.Breaker = infra.NewCircuitBreaker(cfg.Breaker.Threshold, cfg.Breaker.Timeout,
		infra.WithBreakerObserver(func(st domain.BreakerState) {
			if st.Open {
				breakerLog.Error().Int("failures", st.Failures).Time("last_failure", st.LastFailureTime).Msg("circuit breaker opened")
			} else {
				breakerLog.Info().Msg("circuit breaker closed")
			}
			if c.Metrics != nil {
				c.Metrics.ObserveBreaker(st)
			}
		}))

	stats := infra.MultiStats{c.Stats}
	if cfg.Stats.Enabled {
		stats = append(stats, infra.NewRedisStatsStore(
			c.rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		))
	}
	if c.Metrics != nil {
		stats = append(stats, c.Metrics)
	}
	c.stats = stats

	var provider domain.Provider
	if !cfg.Email.TestMode {
		p, err := NewProvider(cfg.Email)
		if err != nil {
			c.Close()
			return nil, err
		}
		provider = p
		if c.Metrics != nil {
			provider = c.Metrics.Instrument(provider)
		}
	}

	gw, err := application.NewGateway(application.Options{
		Limiter:  c.Limiter,
		Breaker:  c.Breaker,
		Provider: provider,
		Renderer: infra.NewTemplates(cfg.Email.SiteName),
		Stats:    c.stats,
		Addresses: application.Addresses{
			From:    cfg.Email.From,
			To:      cfg.Email.To,
			AdminCc: cfg.Email.AdminCc,
		},
		TestMode:    cfg.Email.TestMode,
		SendTimeout: cfg.Email.SendTimeout,
		Logger:      log,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Gateway = gw

	if cfg.Edge.Enabled {
		c.Edge = infra.NewStore(cfg.Edge.RPS, cfg.Edge.Burst)
		c.janitors = append(c.janitors, c.Edge.StartJanitor)
	}

	return c, nil
}

// NewProvider escolhe o provedor configurado.
func NewProvider(cfg config.EmailConfig) (domain.Provider, error) {
	switch cfg.Provider {
	case config.ProviderSMTP:
		return infra.NewSMTPProvider(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password,
			infra.WithSMTPTimeout(cfg.SendTimeout))
	case config.ProviderResend:
		var opts []infra.ResendOption
		if cfg.ResendBaseURL != "" {
			opts = append(opts, infra.WithResendBaseURL(cfg.ResendBaseURL))
		}
		return infra.NewResendProvider(cfg.ResendAPIKey, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown email provider %q", domain.ErrInvalidConfig, cfg.Provider)
	}
}

func dialRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Start inicia as goroutines de limpeza dos stores em memória.
func (c *Components) Start(ctx infra.DoneContext) {
	for _, start := range c.janitors {
		start(ctx)
	}
}

func (c *Components) Close() {
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}

// RouterOptions monta as opções do router a partir da configuração.
func (c *Components) RouterOptions(cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer, g prometheus.Gatherer) RouterOptions {
	opts := RouterOptions{
		Gateway:     c.Gateway,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
		KeyFn:       ClientIP("", cfg.Server.TrustXFF),
		Concurrency: ConcurrencyOptions{
			Max:            cfg.Concurrency.Max,
			AcquireTimeout: cfg.Concurrency.Timeout,
		},
		Gatherer: g,
		Outcomes: func() map[domain.Outcome]int64 { return c.Stats.Total() },
	}
	if reg != nil {
		opts.Metrics = NewMetrics(reg)
	}
	if c.Edge != nil {
		opts.Throttle = ThrottleOptions{
			Store:               c.Edge,
			Stats:               c.stats,
			RetryAfter:          cfg.Edge.RetryAfter,
			AddRateLimitHeaders: true,
		}
	}
	return opts
}
