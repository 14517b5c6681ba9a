// Package http exposes the usage ledger
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"payeerules/internal/modkit/httpkit"
	perr "payeerules/internal/platform/errors"
	rdom "payeerules/internal/services/rules/domain"
	"payeerules/internal/services/usage/service"
)

// Register mounts usage endpoints on the given router
func Register(r httpkit.Router, s service.Service) {
	h := &handlers{svc: s}

	// newest events of one rule
	httpkit.Get(r, "/{key}", h.recent)
}

type handlers struct{ svc service.Service }

// Event is one usage event on the wire
type Event struct {
	RuleKey   string    `json:"rule_key"`
	BatchID   string    `json:"batch_id"`
	Matched   int       `json:"matched"`
	BatchSize int       `json:"batch_size"`
	At        time.Time `json:"at"`
}

func (h *handlers) recent(r *stdhttp.Request) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return httpkit.Response{}, perr.Validation(perr.FieldError{Field: "limit", Message: "limit must be a positive integer"})
		}
		limit = n
	}
	evs, err := h.svc.Recent(r.Context(), tenant, httpkit.Param(r, "key"), limit)
	if err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.OK(toWire(evs)), nil
}

func toWire(evs []rdom.UsageEvent) []Event {
	out := make([]Event, 0, len(evs))
	for _, e := range evs {
		out = append(out, Event{
			RuleKey:   e.RuleKey,
			BatchID:   e.BatchID,
			Matched:   e.Matched,
			BatchSize: e.BatchSize,
			At:        e.At.UTC(),
		})
	}
	return out
}
