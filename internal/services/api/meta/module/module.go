// Package module mounts the unauthenticated meta endpoints
package module

import (
	"net/http"
	"time"

	"payeerules/internal/modkit"
	"payeerules/internal/modkit/httpkit"
	phttp "payeerules/internal/platform/net/http"
	str "payeerules/internal/platform/strings"

	metahttp "payeerules/internal/services/api/meta/http"
)

// Module serves health, readiness and build info for the process
type Module struct {
	name, prefix string
	mws          []func(http.Handler) http.Handler
	extra        func(phttp.Router)

	info metahttp.Deps
}

// New reads CORE_SERVICE_NAME for the reported service name
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	info := metahttp.Deps{
		ServiceName: deps.Cfg.MayString("SERVICE_NAME", "payeerules-api"),
		StartedAt:   time.Now(),
		PG:          deps.PG,
		CH:          deps.CH,
	}
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, extra: b.Register, info: info}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r phttp.Router) {
	httpkit.MountUnder(r, m.Prefix(), m.mws, func(rr httpkit.Router) {
		metahttp.Register(rr, m.info)
		m.extra(rr)
	})
}

// Name implements modkit.Module
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix is the mount point, /meta by default
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports is nil, nothing depends on meta
func (m *Module) Ports() any { return nil }
