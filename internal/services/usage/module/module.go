// Package module wires the usage ledger into the API using modkit
package module

import (
	"context"
	"net/http"
	"time"

	"payeerules/internal/modkit"
	"payeerules/internal/modkit/httpkit"
	phttp "payeerules/internal/platform/net/http"
	str "payeerules/internal/platform/strings"
	rdom "payeerules/internal/services/rules/domain"
	usagehttp "payeerules/internal/services/usage/http"
	usagerepo "payeerules/internal/services/usage/repo"
	usagesvc "payeerules/internal/services/usage/service"
)

// Ports is what the usage module offers other modules
type Ports struct {
	Sink   rdom.UsageSink
	Reader usagesvc.Service
}

// Module implements the usage module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	register func(phttp.Router)

	svc     usagesvc.Service
	enabled bool
}

// New builds the module. Without CORE_USAGE_ENABLED or a clickhouse connection the
// ledger is a no-op and its endpoint answers unavailable
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("usage"), modkit.WithPrefix("/usage")}, opts...)...)
	cfg := deps.Cfg.Prefix("USAGE_")
	log := deps.Log.With().Str("module", b.Name).Logger()

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    usagesvc.Noop{},
	}

	switch {
	case !cfg.MayBool("ENABLED", false):
		log.Info().Msg("usage ledger disabled")
	case deps.CH == nil:
		log.Warn().Msg("usage ledger enabled but clickhouse is not configured")
	default:
		repo, err := usagerepo.NewCH(deps.CH, cfg.MayString("TABLE", usagerepo.DefaultTable))
		if err != nil {
			panic(err)
		}
		if cfg.MayBool("MIGRATE", true) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := repo.EnsureSchema(ctx)
			cancel()
			if err != nil {
				panic(err)
			}
		}
		m.svc = usagesvc.New(repo, usagesvc.Config{
			WriteTimeout: cfg.MayDuration("WRITE_TIMEOUT", 5*time.Second),
			MaxRecent:    cfg.MayInt("MAX_RECENT", 500),
		})
		m.enabled = true
		log.Info().Str("table", repo.Table()).Msg("usage ledger enabled")
	}

	external := b.Register
	m.register = func(r phttp.Router) {
		usagehttp.Register(r, m.svc)
		external(r)
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r phttp.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}

// Ports returns the module ports
func (m *Module) Ports() any { return Ports{Sink: m.svc, Reader: m.svc} }

// Enabled reports whether events reach clickhouse
func (m *Module) Enabled() bool { return m.enabled }

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }
