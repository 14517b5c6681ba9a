// Package http provides http transport for rules
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"payeerules/internal/modkit/httpkit"
	perr "payeerules/internal/platform/errors"
	"payeerules/internal/services/rules/domain"
)

// Register mounts rule endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/", h.list)
	httpkit.PostJSON[domain.CreateInput](r, "/", h.create)

	// batch endpoints sit before /{key} so chi never reads them as keys
	httpkit.PostJSON[domain.ApplyInput](r, "/apply", h.apply)
	httpkit.PostJSON[domain.ApplyInput](r, "/preview", h.preview)
	httpkit.PostJSON[domain.ValidateInput](r, "/validate", h.validate)

	httpkit.Get(r, "/{key}", h.get)
	httpkit.PutJSON[domain.UpdateInput](r, "/{key}", h.update)
	httpkit.Delete(r, "/{key}", h.remove)
}

type handlers struct{ svc domain.ServicePort }

// ApplyOutput is the apply response body
type ApplyOutput struct {
	BatchID      string    `json:"batch_id"`
	Categories   []*string `json:"categories"`
	TouchedRules int       `json:"touched_rules"`
}

// PreviewOutput is the preview response body
type PreviewOutput struct {
	Matches []domain.Match `json:"matches"`
}

// list pages through the tenant's rules
func (h *handlers) list(r *stdhttp.Request) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	in, err := listInput(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	p, err := h.svc.List(r.Context(), tenant, in)
	if err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.List(p.Items, p.Total, p.Page, p.PageSize), nil
}

func (h *handlers) create(r *stdhttp.Request, in domain.CreateInput) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	rule, err := h.svc.Create(r.Context(), tenant, in)
	if err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.Created(rule), nil
}

func (h *handlers) get(r *stdhttp.Request) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	rule, err := h.svc.Get(r.Context(), tenant, httpkit.Param(r, "key"))
	if err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.OK(rule), nil
}

func (h *handlers) update(r *stdhttp.Request, in domain.UpdateInput) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	rule, err := h.svc.Update(r.Context(), tenant, httpkit.Param(r, "key"), in)
	if err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.OK(rule), nil
}

func (h *handlers) remove(r *stdhttp.Request) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	if err := h.svc.Delete(r.Context(), tenant, httpkit.Param(r, "key")); err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.NoContent(), nil
}

// apply categorizes a batch and records rule usage
func (h *handlers) apply(r *stdhttp.Request, in domain.ApplyInput) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	res, err := h.svc.Apply(r.Context(), tenant, in.Transactions)
	if err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.OK(ApplyOutput{BatchID: res.BatchID, Categories: res.Categories, TouchedRules: res.Touched}), nil
}

func (h *handlers) preview(r *stdhttp.Request, in domain.ApplyInput) (httpkit.Response, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return httpkit.Response{}, err
	}
	ms, err := h.svc.Preview(r.Context(), tenant, in.Transactions)
	if err != nil {
		return httpkit.Response{}, err
	}
	return httpkit.OK(PreviewOutput{Matches: ms}), nil
}

func (h *handlers) validate(_ *stdhttp.Request, in domain.ValidateInput) (httpkit.Response, error) {
	return httpkit.OK(h.svc.ValidatePattern(in.Pattern)), nil
}

func listInput(r *stdhttp.Request) (domain.ListInput, error) {
	q := r.URL.Query()
	var fields []perr.FieldError

	page, ok := intParam(q.Get("page"))
	if !ok {
		fields = append(fields, perr.FieldError{Field: "page", Message: "page must be a positive integer"})
	}
	size, ok := intParam(q.Get("page_size"))
	if !ok {
		fields = append(fields, perr.FieldError{Field: "page_size", Message: "page_size must be a positive integer"})
	}
	sort, ok := domain.ParseSort(strings.TrimSpace(q.Get("sort")))
	if !ok {
		fields = append(fields, perr.FieldError{Field: "sort", Message: "sort must be one of pattern, category, lastUsedAt"})
	}
	if err := perr.Validation(fields...); err != nil {
		return domain.ListInput{}, err
	}
	return domain.ListInput{Page: page, PageSize: size, Sort: sort, Search: q.Get("q")}, nil
}

// intParam treats an absent value as zero so the service applies its default
func intParam(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil && n > 0
}
