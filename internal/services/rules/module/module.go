// Package module wires rules into the API using modkit
package module

import (
	"net/http"
	"runtime"

	"payeerules/internal/core/matcher"
	"payeerules/internal/modkit"
	"payeerules/internal/modkit/httpkit"
	"payeerules/internal/modkit/repokit"
	"payeerules/internal/modkit/swaggerkit"
	phttp "payeerules/internal/platform/net/http"
	str "payeerules/internal/platform/strings"
	"payeerules/internal/services/rules/cache"
	"payeerules/internal/services/rules/domain"
	ruleshttp "payeerules/internal/services/rules/http"
	rulesrepo "payeerules/internal/services/rules/repo"
	rulessvc "payeerules/internal/services/rules/service"
)

// Ports is what the rules module offers other modules and commands
type Ports struct {
	Rules domain.ServicePort
}

// Module implements the rules module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	register func(phttp.Router)

	svc rulessvc.Service
}

// New builds the module from CORE_RULES_*. WithPorts may hand it a domain.UsageSink
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("rules"), modkit.WithPrefix("/rules")}, opts...)...)
	svc := NewService(deps, b.Ports)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
	}
	swaggerkit.Register(ruleshttp.Doc(b.Prefix))

	external := b.Register
	m.register = func(r phttp.Router) {
		ruleshttp.Register(r, m.svc)
		external(r)
	}
	return m
}

// NewService builds the rules service the way the module does, commands use it without HTTP
func NewService(deps modkit.Deps, ports any) *rulessvc.Svc {
	cfg := deps.Cfg.Prefix("RULES_")

	db := repokit.TxRunner(deps.PG)
	if d := cfg.MayDuration("STATEMENT_TIMEOUT", 0); d > 0 {
		db = repokit.WithBeginHooks(db, repokit.StatementTimeout(d))
	}

	var rc rulessvc.RuleCache = cache.NewTenant[*matcher.Set]()
	if !cfg.MayBool("CACHE_ENABLED", true) {
		rc = cache.Disabled[*matcher.Set]{}
	}

	sink, _ := ports.(domain.UsageSink)

	return rulessvc.New(db, rulesrepo.NewPG(), rulessvc.Config{
		Workers:         cfg.MayInt("APPLY_WORKERS", runtime.GOMAXPROCS(0)),
		DefaultPageSize: cfg.MayInt("PAGE_SIZE", 25),
		PageSizeMax:     cfg.MayInt("PAGE_SIZE_MAX", 100),
		Cache:           rc,
		Usage:           sink,
	})
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
func (m *Module) Ports() any { return Ports{Rules: m.svc} }

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }
