// Package httpkit is the HTTP surface modules use so they never import the platform http package
package httpkit

import (
	"net/http"

	phttp "payeerules/internal/platform/net/http"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope
	// Page is the pagination block
	Page = phttp.Page
	// Response is what handlers return
	Response = phttp.Response
	// Handler is the platform handler type
	Handler = phttp.Handler
	// Router is the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error maps err to a status and error envelope
func Error(err error) Response { return phttp.Error(err) }

// List returns a 200 response with a page block
func List(items any, total, page, size int) Response {
	return phttp.List(items, total, page, size)
}

// Param reads a path parameter
func Param(r *http.Request, name string) string { return phttp.URLParam(r, name) }

// Handle adapts a Response-returning function
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }
