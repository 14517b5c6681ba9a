package httpkit

import (
	"payeerules/internal/modkit/swaggerkit"
	"payeerules/internal/platform/net/middleware"
)

// Protected groups routes under bearer auth and marks them secured in the API doc
func Protected(r Router, base string, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(&securedRouter{Router: gr, base: base})
	})
}

type securedRouter struct {
	Router
	base string
}

func (s *securedRouter) Route(prefix string, fn func(Router)) {
	child := &securedRouter{base: swaggerkit.JoinPath(s.base, prefix)}
	s.Router.Route(prefix, func(sub Router) {
		child.Router = sub
		fn(child)
	})
}

func (s *securedRouter) Get(path string, h Handler) {
	swaggerkit.MarkSecure(swaggerkit.JoinPath(s.base, path), "get")
	s.Router.Get(path, h)
}

func (s *securedRouter) Post(path string, h Handler) {
	swaggerkit.MarkSecure(swaggerkit.JoinPath(s.base, path), "post")
	s.Router.Post(path, h)
}

func (s *securedRouter) Put(path string, h Handler) {
	swaggerkit.MarkSecure(swaggerkit.JoinPath(s.base, path), "put")
	s.Router.Put(path, h)
}

func (s *securedRouter) Delete(path string, h Handler) {
	swaggerkit.MarkSecure(swaggerkit.JoinPath(s.base, path), "delete")
	s.Router.Delete(path, h)
}
