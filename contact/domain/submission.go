package domain

import "time"

// Submission é um envio do formulário de contato já validado pela camada HTTP.
// Vive apenas durante a chamada ao gateway; nada é persistido.
type Submission struct {
	FirstName string
	LastName  string
	Email     string
	Company   string
	Message   string

	// IPAddress é usado só como chave do rate limit. Vazio => sem rate limit.
	IPAddress string
	// UserAgent só aparece na notificação do admin.
	UserAgent string

	// ReferenceID identifica o envio nos logs e no e-mail do admin.
	ReferenceID string
	SubmittedAt time.Time
}

func (s Submission) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Outcome classifica o resultado de uma chamada ao gateway (stats/métricas).
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeSentTest    Outcome = "sent_test_mode"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeCircuitOpen Outcome = "circuit_open"
	OutcomeFailed      Outcome = "failed"
	OutcomeThrottled   Outcome = "throttled"
	OutcomePassed      Outcome = "passed"
)

const (
	MsgRateLimited = "Rate limit exceeded. Please try again later."
	MsgCircuitOpen = "Email service temporarily unavailable. Please try again later."
	MsgSentTest    = "Email sent successfully (test mode)"
	MsgSent        = "Emails sent successfully"
	MsgFailed      = "Failed to send email. Please try again later."
)

// Result é sempre retornado pelo gateway; falhas esperadas viram valor, nunca erro.
//
// RateLimited e CircuitBreakerOpen são mutuamente exclusivos e só aparecem
// nos dois caminhos de rejeição antes de qualquer tentativa de envio.
type Result struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	RateLimited        bool   `json:"rateLimited,omitempty"`
	CircuitBreakerOpen bool   `json:"circuitBreakerOpen,omitempty"`

	// RetryAfter é a dica de espera quando RateLimited (0 = sem recomendação).
	RetryAfter time.Duration `json:"-"`
	// Window traz os dados do rate limit quando houve consulta.
	Window *WindowDecision `json:"-"`
}

func (r Result) Outcome() Outcome {
	switch {
	case r.RateLimited:
		return OutcomeRateLimited
	case r.CircuitBreakerOpen:
		return OutcomeCircuitOpen
	case r.Success && r.Message == MsgSentTest:
		return OutcomeSentTest
	case r.Success:
		return OutcomeSent
	}
	return OutcomeFailed
}
