package httpkit

import (
	"net/http"

	phttp "payeerules/internal/platform/net/http"
)

// Get mounts a body-less GET
func Get(r Router, path string, h func(*http.Request) (Response, error)) {
	phttp.GetJSON(r, path, h)
}

// Delete mounts a body-less DELETE
func Delete(r Router, path string, h func(*http.Request) (Response, error)) {
	phttp.DeleteJSON(r, path, h)
}

// PostJSON mounts a POST that binds and validates T
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (Response, error)) {
	phttp.PostJSON(r, path, h)
}

// PutJSON mounts a PUT that binds and validates T
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (Response, error)) {
	phttp.PutJSON(r, path, h)
}
