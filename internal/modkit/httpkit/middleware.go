package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"payeerules/internal/platform/config"
	phttp "payeerules/internal/platform/net/http"
	"payeerules/internal/platform/net/middleware"
)

// CommonStack is the baseline every mounted API gets, cfg is the CORE_API_ view
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RealIP(),
		middleware.RequestID(),
		middleware.RecoverJSON,
		middleware.AccessLog(middleware.AccessLogOptions{
			Slow: cfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
			Skip: []string{"/health"},
		}),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", []string{"*"}),
		}),
		middleware.NoCache(),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.Throttle(cfg.MayInt("MAX_INFLIGHT", 256)),
		middleware.Timeout(cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second)),
	}
}

// Auth wires the auth middleware to the platform error envelope
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.RespondError)
}

// JSONBody answers 415 to requests whose body is not JSON, bodiless requests pass
func JSONBody() func(http.Handler) http.Handler {
	return middleware.AllowContentType("application/json")
}
