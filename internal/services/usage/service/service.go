// Package service records and reads rule usage events
package service

import (
	"context"
	"strings"
	"time"

	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/logger"
	rdom "payeerules/internal/services/rules/domain"
	"payeerules/internal/services/usage/repo"
)

// Service is the usage ledger contract
type Service interface {
	rdom.UsageSink
	Recent(ctx context.Context, tenantID, ruleKey string, limit int) ([]rdom.UsageEvent, error)
}

// Config tunes the ledger
type Config struct {
	WriteTimeout time.Duration
	MaxRecent    int
}

// Svc writes through to the clickhouse repo
type Svc struct {
	repo repo.Repo
	cfg  Config
}

// New constructs the usage service
func New(r repo.Repo, cfg Config) *Svc {
	if r == nil {
		panic("usage.Service requires a non nil Repo")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.MaxRecent <= 0 {
		cfg.MaxRecent = 500
	}
	return &Svc{repo: r, cfg: cfg}
}

// Record writes one batch of events under the write timeout
func (s *Svc) Record(ctx context.Context, events []rdom.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.repo.Record(ctx, events); err != nil {
		return err
	}
	logger.C(ctx).Debug().Int("events", len(events)).Msg("usage events recorded")
	return nil
}

// Recent returns up to limit events for one rule, newest first
func (s *Svc) Recent(ctx context.Context, tenantID, ruleKey string, limit int) ([]rdom.UsageEvent, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, perr.InvalidArgf("tenant id is required")
	}
	if strings.TrimSpace(ruleKey) == "" {
		return nil, perr.Validation(perr.FieldError{Field: "key", Message: "key is required"})
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.Recent(ctx, tenantID, ruleKey, min(limit, s.cfg.MaxRecent))
}

// Noop discards events, used when the ledger is off
type Noop struct{}

// Record does nothing
func (Noop) Record(context.Context, []rdom.UsageEvent) error { return nil }

// Recent reports the ledger as unavailable
func (Noop) Recent(context.Context, string, string, int) ([]rdom.UsageEvent, error) {
	return nil, perr.Unavailablef("usage ledger is disabled")
}
