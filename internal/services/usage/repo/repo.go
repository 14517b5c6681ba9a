// Package repo stores rule usage events in clickhouse
package repo

import (
	"context"
	_ "embed"
	"fmt"

	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/store"
	"payeerules/internal/platform/store/ch"
	rdom "payeerules/internal/services/rules/domain"
)

//go:embed schema.sql
var schemaSQL string

// DefaultTable is where events land unless configured otherwise
const DefaultTable = "rule_usage_events"

// Repo is the usage event ledger
type Repo interface {
	Record(ctx context.Context, events []rdom.UsageEvent) error
	// Recent returns the newest events of one rule, newest first
	Recent(ctx context.Context, tenantID, ruleKey string, limit int) ([]rdom.UsageEvent, error)
	EnsureSchema(ctx context.Context) error
}

// CH is the clickhouse Repo
type CH struct {
	c     store.Clickhouse
	table string
}

// NewCH binds the ledger to table, which must be a plain or db qualified identifier
func NewCH(c store.Clickhouse, table string) (*CH, error) {
	if c == nil {
		return nil, perr.Unavailablef("usage ledger needs clickhouse")
	}
	if table == "" {
		table = DefaultTable
	}
	if !ch.ValidIdent(table) {
		return nil, perr.InvalidArgf("invalid usage table %q", table)
	}
	return &CH{c: c, table: table}, nil
}

// Table returns the target table
func (r *CH) Table() string { return r.table }

// EnsureSchema creates the table when missing
func (r *CH) EnsureSchema(ctx context.Context) error {
	if err := r.c.Exec(ctx, fmt.Sprintf(schemaSQL, r.table)); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "create %s", r.table)
	}
	return nil
}

// Record appends events in one batch
func (r *CH) Record(ctx context.Context, events []rdom.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{
			e.TenantID, e.RuleKey, e.BatchID,
			uint32(max(e.Matched, 0)), uint32(max(e.BatchSize, 0)),
			e.At.UTC(),
		})
	}
	if err := r.c.Insert(ctx, r.table, rows); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert %d usage events", len(rows))
	}
	return nil
}

// Recent reads a rule's latest events
func (r *CH) Recent(ctx context.Context, tenantID, ruleKey string, limit int) ([]rdom.UsageEvent, error) {
	sql := fmt.Sprintf(`SELECT tenant_id, rule_key, batch_id, matched, batch_size, at
FROM %s
WHERE tenant_id = ? AND rule_key = ?
ORDER BY at DESC
LIMIT ?`, r.table)

	rows, err := r.c.Query(ctx, sql, tenantID, ruleKey, uint64(max(limit, 0)))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "read %s", r.table)
	}
	defer rows.Close()

	out := []rdom.UsageEvent{}
	for rows.Next() {
		var (
			e             rdom.UsageEvent
			matched, size uint32
		)
		if err := rows.Scan(&e.TenantID, &e.RuleKey, &e.BatchID, &matched, &size, &e.At); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "scan %s", r.table)
		}
		e.Matched, e.BatchSize = int(matched), int(size)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "read %s", r.table)
	}
	return out, nil
}
