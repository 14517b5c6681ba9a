package store

import (
	"context"
	"fmt"
	"time"

	"payeerules/internal/core/version"
	chx "payeerules/internal/platform/store/ch"
	"payeerules/internal/platform/store/pg"
)

// pingBackoff caps the delay between connection attempts
var pingBackoff = struct{ start, ceiling time.Duration }{150 * time.Millisecond, 2 * time.Second}

// openPG opens the pool and only publishes the adapter once a ping succeeds
func openPG(ctx context.Context, cfg PGConfig, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{URL: cfg.URL, MaxConns: cfg.MaxConns, SlowMs: cfg.SlowQueryMs}, tracer, nil)
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.ConnectRetries, 1)
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	var lastErr error
	wait := pingBackoff.start
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = p.Pool.Ping(pctx)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}

		s.Log.Warn().Err(lastErr).Int("attempt", i+1).Int("of", attempts).Msg("postgres not ready")
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, pingBackoff.ceiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.CH.URL,
		ClientInfo: chx.BuildClientInfo(cfg.CH.Role, version.Version),
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("role", cfg.CH.Role).Msg("clickhouse connected")
	return newCHAdapter(c), nil
}
