package middleware

import (
	"net/http"

	"payeerules/internal/platform/logger"
	pnet "payeerules/internal/platform/net"
)

// AuthPort resolves the tenant a request acts for
type AuthPort interface {
	Parse(r *http.Request) (tenantID string, err error)
}

// Auth rejects requests the port can't resolve and stores the tenant on ctx, nil port passes through
func Auth(p AuthPort, write func(w http.ResponseWriter, r *http.Request, err error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			tid, err := p.Parse(r)
			if err != nil {
				write(w, r, err)
				return
			}
			reqID := pnet.RequestID(r.Context())
			ctx := pnet.WithRequest(r.Context(), reqID, tid)
			ctx = logger.WithRequest(ctx, reqID, tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
