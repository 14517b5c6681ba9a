// Command payeerules-api serves the rule store and apply endpoints over HTTP
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payeerules/internal/modkit/repokit"
	"payeerules/internal/platform/config"
	"payeerules/internal/platform/logger"
	phttp "payeerules/internal/platform/net/http"
	"payeerules/internal/platform/store"

	"payeerules/internal/services/api"
	rulesrepo "payeerules/internal/services/rules/repo"

	"github.com/joho/godotenv"
)

func main() {
	// a missing .env is fine, the real environment wins
	_ = godotenv.Load()

	logger.Init(logger.FromEnv())
	l := logger.Named("payeerules-api")

	root := config.New().Prefix("CORE_")
	apiCfg := root.Prefix("API_")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromConfig(root, "payeerules-api"), store.WithLogger(*logger.Get()))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	if root.Prefix("PG_").MayBool("MIGRATE", true) {
		if err := rulesrepo.EnsureSchema(ctx, st.PG); err != nil {
			l.Panic().Err(err).Msg("rules schema")
		}
	}

	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(ctx, apiCfg.MayDuration("SHUTDOWN_GRACE", 15*time.Second)); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("bye")
}
