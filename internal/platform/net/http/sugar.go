package http

import "net/http"

// GetJSON mounts a body-less GET handler
func GetJSON(r Router, path string, h func(*http.Request) (Response, error)) {
	r.Get(path, NoBodyHandler(h))
}

// DeleteJSON mounts a body-less DELETE handler
func DeleteJSON(r Router, path string, h func(*http.Request) (Response, error)) {
	r.Delete(path, NoBodyHandler(h))
}

// PostJSON mounts a JSON POST handler
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (Response, error)) {
	r.Post(path, JSONHandler(h))
}

// PutJSON mounts a JSON PUT handler
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (Response, error)) {
	r.Put(path, JSONHandler(h))
}
