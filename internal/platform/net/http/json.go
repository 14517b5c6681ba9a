package http

import (
	"net/http"

	"payeerules/internal/platform/net/http/bind"
)

// JSONHandler decodes T from the body, calls fn and wraps its result
func JSONHandler[T any](fn func(*http.Request, T) (Response, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return out
	})
}

// NoBodyHandler calls fn without reading a body
func NoBodyHandler(fn func(*http.Request) (Response, error)) Handler {
	return Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		return out
	})
}
