// Package repo provides postgres access for matching rules
package repo

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"payeerules/internal/modkit/repokit"
	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/store"
	"payeerules/internal/services/rules/domain"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for the rules table
func Schema() string { return schemaSQL }

// EnsureSchema creates the rules table and index when missing
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, schemaSQL)
	return err
}

// Repo is the storage contract for rules, every call is tenant scoped
type Repo interface {
	Insert(ctx context.Context, r domain.Rule) error
	Get(ctx context.Context, tenantID, key string) (domain.Rule, error)
	Update(ctx context.Context, r domain.Rule) error
	Delete(ctx context.Context, tenantID, key string) error
	// ForMatching returns every rule of the tenant, newest modification first
	ForMatching(ctx context.Context, tenantID string) ([]domain.Rule, error)
	List(ctx context.Context, tenantID string, in domain.ListInput) ([]domain.Rule, int, error)
	// BumpUsage adds one use to a rule and stamps its last use
	BumpUsage(ctx context.Context, tenantID, key string, at time.Time) error
}

type (
	// PG binds Repo to a Queryer
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG returns the Postgres binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const cols = `key::text, tenant_id, pattern, is_regex, category, created_at, modified_at, last_used_at, match_count`

func scanRule(row store.Row) (domain.Rule, error) {
	var r domain.Rule
	err := row.Scan(&r.Key, &r.TenantID, &r.Pattern, &r.IsRegex, &r.Category,
		&r.CreatedAt, &r.ModifiedAt, &r.LastUsedAt, &r.MatchCount)
	return r, err
}

func (s *queries) Insert(ctx context.Context, r domain.Rule) error {
	const sql = `
insert into matching_rules (key, tenant_id, pattern, is_regex, category, created_at, modified_at, last_used_at, match_count)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.q.Exec(ctx, sql, r.Key, r.TenantID, r.Pattern, r.IsRegex, r.Category,
		r.CreatedAt, r.ModifiedAt, r.LastUsedAt, r.MatchCount)
	return mapErr(err, "rules.insert")
}

func (s *queries) Get(ctx context.Context, tenantID, key string) (domain.Rule, error) {
	if !isUUID(key) {
		return domain.Rule{}, notFound(key)
	}
	sql := `select ` + cols + ` from matching_rules where tenant_id = $1 and key = $2`
	r, err := store.One(ctx, s.q, scanRule, sql, tenantID, key)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Rule{}, notFound(key)
	}
	return r, mapErr(err, "rules.get")
}

func (s *queries) Update(ctx context.Context, r domain.Rule) error {
	if !isUUID(r.Key) {
		return notFound(r.Key)
	}
	const sql = `
update matching_rules
set pattern = $3, is_regex = $4, category = $5, modified_at = $6
where tenant_id = $1 and key = $2`
	err := store.ExecOne(ctx, s.q, sql, r.TenantID, r.Key, r.Pattern, r.IsRegex, r.Category, r.ModifiedAt)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return notFound(r.Key)
	}
	return mapErr(err, "rules.update")
}

func (s *queries) Delete(ctx context.Context, tenantID, key string) error {
	if !isUUID(key) {
		return notFound(key)
	}
	err := store.ExecOne(ctx, s.q, `delete from matching_rules where tenant_id = $1 and key = $2`, tenantID, key)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return notFound(key)
	}
	return mapErr(err, "rules.delete")
}

func (s *queries) ForMatching(ctx context.Context, tenantID string) ([]domain.Rule, error) {
	sql := `select ` + cols + ` from matching_rules where tenant_id = $1 order by modified_at desc, key asc`
	out, err := store.Many(ctx, s.q, scanRule, sql, tenantID)
	return out, mapErr(err, "rules.for_matching")
}

func (s *queries) List(ctx context.Context, tenantID string, in domain.ListInput) ([]domain.Rule, int, error) {
	where := `where tenant_id = $1`
	args := []any{tenantID}
	if term := strings.TrimSpace(in.Search); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		where += fmt.Sprintf(` and (pattern ilike $%[1]d escape '\' or category ilike $%[1]d escape '\')`, len(args))
	}

	total, err := store.Scalar[int](ctx, s.q, `select count(*) from matching_rules `+where, args...)
	if err != nil {
		return nil, 0, mapErr(err, "rules.count")
	}

	args = append(args, in.PageSize, (in.Page-1)*in.PageSize)
	sql := fmt.Sprintf(`select %s from matching_rules %s order by %s limit $%d offset $%d`,
		cols, where, orderBy(in.Sort), len(args)-1, len(args))
	out, err := store.Many(ctx, s.q, scanRule, sql, args...)
	if err != nil {
		return nil, 0, mapErr(err, "rules.list")
	}
	return out, total, nil
}

func (s *queries) BumpUsage(ctx context.Context, tenantID, key string, at time.Time) error {
	const sql = `
update matching_rules
set match_count = match_count + 1, last_used_at = $3
where tenant_id = $1 and key = $2`
	err := store.ExecOne(ctx, s.q, sql, tenantID, key, at)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return notFound(key)
	}
	return mapErr(err, "rules.bump_usage")
}

// orderBy only ever returns fixed clauses, the sort value never reaches the sql text
func orderBy(s domain.Sort) string {
	switch s {
	case domain.SortCategory:
		return `lower(category) asc, key asc`
	case domain.SortLastUsed:
		return `last_used_at desc nulls last, key asc`
	default:
		return `lower(pattern) asc, key asc`
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func notFound(key string) error { return perr.NotFoundf("rule %s not found", key) }

func mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.WithOp(perr.FromPostgres(err, "rule store failed"), op)
}

// keys are uuids, anything else can't exist and would only trip a cast error in postgres
func isUUID(key string) bool {
	_, err := uuid.Parse(key)
	return err == nil
}
