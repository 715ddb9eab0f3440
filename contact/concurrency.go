package contact

import (
	"net/http"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/infra"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
}

// ConcurrencyMiddleware limita quantas requests seguram uma chamada ao provedor
// ao mesmo tempo. Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				writeError(w, r, http.StatusServiceUnavailable, codeBusy, msgBusy)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
