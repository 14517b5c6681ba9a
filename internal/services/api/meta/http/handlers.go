// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"payeerules/internal/core/version"
	"payeerules/internal/modkit/httpkit"
	ptime "payeerules/internal/platform/time"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	Clock       ptime.Clock
}

type handlers struct {
	deps Deps
	now  ptime.Clock
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: d.Clock.OrSystem()}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped unknown
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

func (h *handlers) health(_ *http.Request) (httpkit.Response, error) {
	return httpkit.OK(HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.now().UTC().Format(time.RFC3339),
	}), nil
}

// ready pings postgres and clickhouse, clickhouse is optional so a missing one is only skipped
func (h *handlers) ready(r *http.Request) (httpkit.Response, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if p, ok := c.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
			}
			return ReadyCheck{Name: name, Status: "ok"}
		}
		return ReadyCheck{Name: name, Status: "unknown"}
	}

	pg := check("pg", h.deps.PG)
	ch := check("ch", h.deps.CH)

	overall := "ok"
	switch {
	case pg.Status == "fail" || ch.Status == "fail":
		overall = "fail"
	case pg.Status != "ok" || (ch.Status != "ok" && ch.Status != "skipped"):
		overall = "degraded"
	}

	status := http.StatusOK
	if overall == "fail" {
		status = http.StatusServiceUnavailable
	}
	return httpkit.Response{
		Status: status,
		Body: ReadyResponse{
			Status: overall,
			Checks: []ReadyCheck{pg, ch},
			Now:    h.now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (h *handlers) version(_ *http.Request) (httpkit.Response, error) {
	return httpkit.OK(version.Info(h.deps.ServiceName)), nil
}

func (h *handlers) service(_ *http.Request) (httpkit.Response, error) {
	uptime := h.now().Sub(h.deps.StartedAt)
	return httpkit.OK(ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(uptime / time.Second),
	}), nil
}
