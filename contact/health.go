package contact

import (
	"net/http"

	"contact-gateway/contact/domain"
)

// HealthSource é o que o /healthz precisa saber do gateway.
type HealthSource interface {
	BreakerState() domain.BreakerState
	TestMode() bool
}

type healthResponse struct {
	Status   string                   `json:"status"`
	TestMode bool                     `json:"testMode"`
	Breaker  domain.BreakerState      `json:"circuitBreaker"`
	Outcomes map[domain.Outcome]int64 `json:"outcomes,omitempty"`
}

// Health responde sempre 200; breaker aberto aparece como "degraded".
// outcomes é opcional (contadores desta instância).
func Health(src HealthSource, outcomes func() map[domain.Outcome]int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := healthResponse{
			Status:   "ok",
			TestMode: src.TestMode(),
			Breaker:  src.BreakerState(),
		}
		if body.Breaker.Open {
			body.Status = "degraded"
		}
		if outcomes != nil {
			body.Outcomes = outcomes()
		}
		writeRaw(w, http.StatusOK, body)
	}
}
