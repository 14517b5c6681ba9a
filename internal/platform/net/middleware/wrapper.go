// Package middleware adapts chi and go-chi/cors middleware and hosts the in-house ones
package middleware

import (
	"net/http"
	"time"

	"payeerules/internal/platform/logger"
	pnet "payeerules/internal/platform/net"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the stdlib middleware shape
type Middleware = func(http.Handler) http.Handler

// RequestID attaches or propagates X-Request-Id and echoes it back
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := pnet.RequestID(r.Context())
			if id != "" {
				w.Header().Set(chimw.RequestIDHeader, id)
			}
			ctx := logger.WithRequest(r.Context(), id, "")
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
	}
}

// RealIP sets RemoteAddr from X-Real-IP or X-Forwarded-For
func RealIP() Middleware { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// NoCache disables client and proxy caching
func NoCache() Middleware { return chimw.NoCache }

// Compress wraps chi's compressor
func Compress(level int) Middleware {
	c := chimw.NewCompressor(level)
	return c.Handler
}

// AllowContentType rejects bodies of other content types with 415
func AllowContentType(ct ...string) Middleware { return chimw.AllowContentType(ct...) }

// Throttle caps concurrent in-flight requests
func Throttle(limit int) Middleware { return chimw.Throttle(limit) }

// Heartbeat answers GET path with 200 before routing, for load balancers
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS wraps go-chi/cors, empty method and header lists get defaults
func CORS(o CORSOptions) Middleware {
	methods := o.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	headers := o.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"}
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		ExposedHeaders:   o.ExposedHeaders,
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}
