package swaggerkit

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"payeerules/internal/core/version"
)

// SpecMutator lets a module add its paths and schemas to the document
type SpecMutator func(map[string]any)

var (
	mu       sync.Mutex
	mutators []SpecMutator
	secured  = map[string]map[string]struct{}{}
)

// Register adds a spec mutator, modules call it when they are built
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	mutators = append(mutators, m)
	mu.Unlock()
}

// MarkSecure records that method on path requires a bearer token
func MarkSecure(path, method string) {
	mu.Lock()
	defer mu.Unlock()
	m, ok := secured[path]
	if !ok {
		m = map[string]struct{}{}
		secured[path] = m
	}
	m[strings.ToLower(method)] = struct{}{}
}

// Reset clears registered state, tests only
func Reset() {
	mu.Lock()
	mutators = nil
	secured = map[string]map[string]struct{}{}
	mu.Unlock()
}

// JoinPath joins two route fragments with exactly one slash
func JoinPath(a, b string) string {
	a = strings.TrimSuffix(a, "/")
	if b == "" || b == "/" {
		if a == "" {
			return "/"
		}
		return a
	}
	return a + "/" + strings.TrimPrefix(b, "/")
}

// Build assembles the document from the base skeleton and every registered mutator
func Build() map[string]any {
	spec := base()
	mu.Lock()
	ms := append([]SpecMutator(nil), mutators...)
	sec := make(map[string][]string, len(secured))
	for p, methods := range secured {
		for m := range methods {
			sec[p] = append(sec[p], m)
		}
	}
	mu.Unlock()

	for _, m := range ms {
		m(spec)
	}
	applySecurity(spec, sec)
	addDefaultErrors(spec)
	return spec
}

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(Build())
	}
}

func base() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "payeerules API",
			"version": version.Version,
		},
		"servers": []any{map[string]any{"url": "/api/v1"}},
		"paths":   map[string]any{},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{"type": "http", "scheme": "bearer"},
			},
			"schemas": map[string]any{
				"ErrorResponse": errorSchema(),
			},
		},
	}
}

func errorSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer"},
			"status":      map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
			"error": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code":    map[string]any{"type": "string"},
					"message": map[string]any{"type": "string"},
					"fields": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"field":   map[string]any{"type": "string"},
								"message": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
		"required": []any{"status_code", "status"},
	}
}

// Paths returns the paths object, creating it when a mutator runs first
func Paths(spec map[string]any) map[string]any {
	p, ok := spec["paths"].(map[string]any)
	if !ok {
		p = map[string]any{}
		spec["paths"] = p
	}
	return p
}

// Schemas returns components.schemas, creating it as needed
func Schemas(spec map[string]any) map[string]any {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	s, ok := comps["schemas"].(map[string]any)
	if !ok {
		s = map[string]any{}
		comps["schemas"] = s
	}
	return s
}

// paths in the document are relative to the /api/v1 server url
func applySecurity(spec map[string]any, sec map[string][]string) {
	paths := Paths(spec)
	keys := make([]string, 0, len(sec))
	for p := range sec {
		keys = append(keys, p)
	}
	sort.Strings(keys)
	for _, full := range keys {
		p := strings.TrimPrefix(full, "/api/v1")
		node, ok := paths[p].(map[string]any)
		if !ok {
			continue
		}
		for _, m := range sec[full] {
			op, ok := node[m].(map[string]any)
			if !ok {
				continue
			}
			op["security"] = []any{map[string]any{"bearerAuth": []any{}}}
		}
	}
}

func addDefaultErrors(spec map[string]any) {
	ref := map[string]any{
		"application/json": map[string]any{
			"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
		},
	}
	defaults := map[string]string{
		"400": "Bad Request",
		"500": "Internal Server Error",
	}
	for _, p := range Paths(spec) {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps, ok := op["responses"].(map[string]any)
			if !ok {
				resps = map[string]any{}
				op["responses"] = resps
			}
			for code, desc := range defaults {
				if _, exists := resps[code]; !exists {
					resps[code] = map[string]any{"description": desc, "content": ref}
				}
			}
		}
	}
}
