// Package infra contém implementações concretas dos contratos do pacote domain.
//
// Exemplos:
//   - WindowStore / RedisWindowLimiter: rate limit de janela fixa por IP (memória ou Redis)
//   - CircuitBreaker: proteção do provedor de e-mail
//   - Templates: e-mails de confirmação e de notificação do admin
//   - ResendProvider / SMTPProvider: entrega via API transacional ou SMTP
//   - Store: token bucket por chave usando golang.org/x/time/rate (borda HTTP)
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore / PrometheusStats: estatísticas de desfecho
package infra
