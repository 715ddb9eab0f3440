package contact

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc extrai o identificador do cliente (IP) de uma request.
type KeyFunc func(r *http.Request) string

// ClientIP usa, nesta ordem: header configurado, primeiro IP do
// X-Forwarded-For (se trustXFF) e o host de RemoteAddr.
// Retorna "" quando nada for encontrado: sem IP o gateway não aplica rate limit.
func ClientIP(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		// fallback: RemoteAddr
		addr := strings.TrimSpace(r.RemoteAddr)
		if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
			return host
		}
		return addr
	}
}
