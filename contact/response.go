package contact

import (
	"encoding/json"
	"net/http"

	"contact-gateway/contact/domain"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgInvalidBody = "Invalid request body."
	msgValidation  = "Please check the highlighted fields."
	msgThrottled   = "Too many requests. Please slow down."
	msgBusy        = "Server is busy. Please try again later."

	codeInvalidBody = "invalid_body"
	codeValidation  = "validation_failed"
	codeThrottled   = "too_many_requests"
	codeBusy        = "server_busy"
)

// response é o envelope JSON de todas as respostas da API de contato.
type response struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	RateLimited        bool              `json:"rateLimited,omitempty"`
	CircuitBreakerOpen bool              `json:"circuitBreakerOpen,omitempty"`
	ReferenceID        string            `json:"referenceId,omitempty"`
	RequestID          string            `json:"requestId,omitempty"`
	Error              string            `json:"error,omitempty"`
	Fields             map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body response) {
	if body.RequestID == "" {
		body.RequestID = middleware.GetReqID(r.Context())
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, response{Message: msg, Error: code})
}

// statusFor mapeia o Result do gateway para o status HTTP.
func statusFor(res domain.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.RateLimited:
		return http.StatusTooManyRequests
	case res.CircuitBreakerOpen:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
