// Package service implements rule lifecycle and batch categorization
package service

import (
	"context"
	"strings"
	"time"

	"payeerules/internal/core/matcher"
	"payeerules/internal/core/patterns"
	"payeerules/internal/modkit/repokit"
	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/logger"
	"payeerules/internal/platform/store"
	ptime "payeerules/internal/platform/time"
	"payeerules/internal/services/rules/cache"
	"payeerules/internal/services/rules/domain"
	"payeerules/internal/services/rules/repo"

	"github.com/google/uuid"
)

// Service is the rules service contract
type Service interface {
	domain.ServicePort
}

// RuleCache holds a compiled rule set per tenant
type RuleCache interface {
	GetOrLoad(ctx context.Context, tenantID string, load func(context.Context) (*matcher.Set, error)) (*matcher.Set, error)
	Invalidate(tenantID string)
}

// Config tunes the service, zero values fall back to defaults
type Config struct {
	Workers         int
	DefaultPageSize int
	PageSizeMax     int
	Clock           ptime.Clock
	Cache           RuleCache
	Usage           domain.UsageSink
}

// Svc implements Service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	cfg   Config
	now   ptime.Clock
	cache RuleCache
	usage domain.UsageSink
	locks *tenantLocks
}

// New constructs the rules service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config) *Svc {
	if db == nil {
		panic("rules.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("rules.Service requires a non nil Repo binder")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PageSizeMax <= 0 {
		cfg.PageSizeMax = 100
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 25
	}
	cfg.DefaultPageSize = min(cfg.DefaultPageSize, cfg.PageSizeMax)

	var c RuleCache = cache.NewTenant[*matcher.Set]()
	if cfg.Cache != nil {
		c = cfg.Cache
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		cfg:    cfg,
		now:    cfg.Clock.OrSystem(),
		cache:  c,
		usage:  cfg.Usage,
		locks:  newTenantLocks(),
	}
}

// Create validates and stores a new rule
func (s *Svc) Create(ctx context.Context, tenantID string, in domain.CreateInput) (domain.Rule, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.Rule{}, err
	}
	category, err := checkRule(in.Pattern, in.IsRegex, in.Category)
	if err != nil {
		return domain.Rule{}, err
	}

	unlock := s.locks.lock(tenantID)
	defer unlock()

	now := s.stamp()
	r := domain.Rule{
		Key:        uuid.NewString(),
		TenantID:   tenantID,
		Pattern:    in.Pattern,
		IsRegex:    in.IsRegex,
		Category:   category,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.Repo.Insert(ctx, r); err != nil {
		return domain.Rule{}, err
	}
	s.cache.Invalidate(tenantID)

	logger.C(ctx).Info().Str("tenant_id", tenantID).Str("rule_key", r.Key).Bool("is_regex", r.IsRegex).Msg("rule created")
	return r, nil
}

// Update replaces a rule's pattern and category and bumps its modification time
func (s *Svc) Update(ctx context.Context, tenantID, key string, in domain.UpdateInput) (domain.Rule, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.Rule{}, err
	}
	category, err := checkRule(in.Pattern, in.IsRegex, in.Category)
	if err != nil {
		return domain.Rule{}, err
	}

	unlock := s.locks.lock(tenantID)
	defer unlock()

	var out domain.Rule
	err = store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		cur, err := r.Get(ctx, tenantID, key)
		if err != nil {
			return err
		}
		now := s.stamp()
		if !now.After(cur.ModifiedAt) {
			now = cur.ModifiedAt.Add(time.Microsecond)
		}
		cur.Pattern = in.Pattern
		cur.IsRegex = in.IsRegex
		cur.Category = category
		cur.ModifiedAt = now
		if err := r.Update(ctx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return domain.Rule{}, err
	}
	s.cache.Invalidate(tenantID)

	logger.C(ctx).Info().Str("tenant_id", tenantID).Str("rule_key", key).Msg("rule updated")
	return out, nil
}

// Delete removes a rule
func (s *Svc) Delete(ctx context.Context, tenantID, key string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}

	unlock := s.locks.lock(tenantID)
	defer unlock()

	if err := s.Repo.Delete(ctx, tenantID, key); err != nil {
		return err
	}
	s.cache.Invalidate(tenantID)

	logger.C(ctx).Info().Str("tenant_id", tenantID).Str("rule_key", key).Msg("rule deleted")
	return nil
}

// Get returns one rule
func (s *Svc) Get(ctx context.Context, tenantID, key string) (domain.Rule, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.Rule{}, err
	}
	return s.Repo.Get(ctx, tenantID, key)
}

// List returns a page of the tenant's rules
func (s *Svc) List(ctx context.Context, tenantID string, in domain.ListInput) (domain.Page, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.Page{}, err
	}
	in, err := s.pageInput(in)
	if err != nil {
		return domain.Page{}, err
	}
	rows, total, err := s.Repo.List(ctx, tenantID, in)
	if err != nil {
		return domain.Page{}, err
	}
	if rows == nil {
		rows = []domain.Rule{}
	}
	return domain.Page{Items: rows, Total: total, Page: in.Page, PageSize: in.PageSize}, nil
}

// ValidatePattern reports whether pattern would be accepted as a regex rule
func (s *Svc) ValidatePattern(pattern string) domain.ValidateResult {
	res := patterns.Validate(pattern)
	return domain.ValidateResult{
		OK:      res.Valid(),
		Kind:    res.Kind.String(),
		Feature: string(res.Feature),
		Message: res.Message,
	}
}

func (s *Svc) pageInput(in domain.ListInput) (domain.ListInput, error) {
	sort, ok := domain.ParseSort(string(in.Sort))
	if !ok {
		return in, perr.Validation(perr.FieldError{Field: "sort", Message: "sort must be one of pattern, category, lastUsedAt"})
	}
	in.Sort = sort
	if in.Page < 1 {
		in.Page = 1
	}
	switch {
	case in.PageSize <= 0:
		in.PageSize = s.cfg.DefaultPageSize
	case in.PageSize > s.cfg.PageSizeMax:
		in.PageSize = s.cfg.PageSizeMax
	}
	in.Search = strings.TrimSpace(in.Search)
	return in, nil
}

// stamp is now at the precision postgres keeps
func (s *Svc) stamp() time.Time { return s.now().UTC().Truncate(time.Microsecond) }

func requireTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return perr.InvalidArgf("tenant id is required")
	}
	return nil
}
