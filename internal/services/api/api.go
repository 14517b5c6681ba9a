// Package api composes the HTTP API from the service modules
package api

import (
	"payeerules/internal/platform/config"
	"payeerules/internal/platform/logger"
	phttp "payeerules/internal/platform/net/http"
	"payeerules/internal/platform/store"

	"payeerules/internal/modkit"
	"payeerules/internal/modkit/httpkit"
	"payeerules/internal/modkit/module"
	"payeerules/internal/modkit/swaggerkit"

	metamod "payeerules/internal/services/api/meta/module"
	rdom "payeerules/internal/services/rules/domain"
	rulesmod "payeerules/internal/services/rules/module"
	usagemod "payeerules/internal/services/usage/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts every module onto r. Config is the CORE_ view, tokens come from CORE_API_TOKENS
func Mount(r phttp.Router, opt Options) {
	apiCfg := opt.Config.Prefix("API_")

	deps := modkit.FromStore(opt.Store, opt.Config)
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// usage first, rules records into its sink
	usage := usagemod.New(deps)
	rules := rulesmod.New(deps,
		modkit.WithPorts(module.MustPortsOf[rdom.UsageSink](usage)),
		modkit.WithMiddlewares(httpkit.JSONBody()),
	)
	meta := metamod.New(deps)

	public := []module.Module{meta}
	tenant := []module.Module{rules, usage}

	tokens := apiCfg.MayPairs("TOKENS")
	if len(tokens) == 0 {
		deps.Log.Warn().Msg("no CORE_API_TOKENS configured, tenant routes will reject every request")
	}
	auth := httpkit.NewPortFunc(httpkit.StaticTokens(tokens))

	// heartbeat answers /health only at the root mux
	r.Use(httpkit.CommonStack(apiCfg)...)

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, nil, func(api httpkit.Router) {
		for _, m := range append(public, tenant...) {
			module.Register(m.Name(), m.Ports())
		}
		for _, m := range public {
			m.MountRoutes(api)
		}
		httpkit.Protected(api, "/api/v1", auth, func(pr httpkit.Router) {
			for _, m := range tenant {
				m.MountRoutes(pr)
			}
		})
	})
}
