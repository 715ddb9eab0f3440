package infra

import (
	"context"
	"time"

	"contact-gateway/contact/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusStats expõe desfechos, estado do breaker e latência do provedor.
type PrometheusStats struct {
	outcomes     *prometheus.CounterVec
	breakerOpen  prometheus.Gauge
	sendDuration *prometheus.HistogramVec
}

func NewPrometheusStats(reg prometheus.Registerer) *PrometheusStats {
	f := promauto.With(reg)
	return &PrometheusStats{
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_submissions_total",
				Help: "Contact submissions by outcome",
			},
			[]string{"outcome"},
		),
		breakerOpen: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "contact_circuit_breaker_open",
				Help: "1 when the email provider circuit breaker is open",
			},
		),
		sendDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contact_provider_send_duration_seconds",
				Help:    "Duration of email provider calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	p.outcomes.WithLabelValues(string(ev.Outcome)).Inc()
	return nil
}

// ObserveBreaker serve como observer do CircuitBreaker.
func (p *PrometheusStats) ObserveBreaker(st domain.BreakerState) {
	if st.Open {
		p.breakerOpen.Set(1)
	} else {
		p.breakerOpen.Set(0)
	}
}

// Instrument embrulha um provider medindo a duração de cada envio.
func (p *PrometheusStats) Instrument(next domain.Provider) domain.Provider {
	return instrumentedProvider{next: next, hist: p.sendDuration}
}

type instrumentedProvider struct {
	next domain.Provider
	hist *prometheus.HistogramVec
}

func (ip instrumentedProvider) Send(ctx context.Context, msg domain.Message) (string, error) {
	start := time.Now()
	id, err := ip.next.Send(ctx, msg)
	status := "ok"
	if err != nil {
		status = "error"
	}
	ip.hist.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return id, err
}
