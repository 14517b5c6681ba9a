// Package http provides the router facade, server and JSON envelope helpers
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/logger"
	pnet "payeerules/internal/platform/net"
)

// Envelope is the body every endpoint writes
type Envelope struct {
	StatusCode int        `json:"status_code"`
	Status     string     `json:"status"`
	RequestID  string     `json:"request_id,omitempty"`
	Data       any        `json:"data,omitempty"`
	Page       *Page      `json:"page,omitempty"`
	Error      *perr.Wire `json:"error,omitempty"`
}

// Page describes a slice of a larger result
type Page struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes err as an error envelope, used by middleware outside Handle
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	Error(err).write(w, r)
}

// Response is what return-style handlers produce
type Response struct {
	Status int
	Body   any
	Page   *Page
	Header stdhttp.Header
}

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	if status == stdhttp.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	env := Envelope{RequestID: pnet.RequestID(r.Context())}
	if err, ok := resp.Body.(error); ok && err != nil {
		var wire perr.Wire
		status, wire = perr.HTTP(err)
		if status >= stdhttp.StatusInternalServerError {
			logger.C(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		env.Error = &wire
	} else {
		env.Data = resp.Body
		env.Page = resp.Page
	}
	env.StatusCode = status
	env.Status = stdhttp.StatusText(status)
	JSON(w, status, env)
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Created returns a 201 response
func Created(data any) Response { return Response{Status: stdhttp.StatusCreated, Body: data} }

// NoContent returns a 204 response
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error returns a response whose status and body come from err
func Error(err error) Response { return Response{Body: err} }

// List returns a 200 response with items and a page block
func List(items any, total, page, size int) Response {
	return Response{
		Status: stdhttp.StatusOK,
		Body:   items,
		Page:   &Page{Total: total, Page: page, PageSize: size},
	}
}
