// Package contact expõe o gateway de e-mail de contato via HTTP.
//
// Estrutura:
//   - domain: tipos e contratos (Submission, Result, WindowLimiter, Breaker, Provider...)
//   - application: casos de uso sem net/http (Gateway, throttle da borda, concorrência)
//   - infra: implementações (limiters memória/Redis, breaker, templates, Resend/SMTP, stats)
//
// Este pacote contém apenas os adaptadores HTTP: handler de /api/contact,
// middlewares da borda (token bucket por IP e limite de concorrência),
// métricas, /healthz e a montagem do router chi.
//
// Exemplo:
//
//	comp, err := contact.Build(cfg, log, reg)
//	if err != nil { ... }
//	h := contact.NewRouter(comp.RouterOptions(cfg, log, reg, reg))
package contact
