package service

import (
	"context"
	"sync"

	"payeerules/internal/core/matcher"
	"payeerules/internal/core/usage"
	"payeerules/internal/modkit/repokit"
	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/logger"
	"payeerules/internal/platform/store"
	"payeerules/internal/services/rules/domain"

	"github.com/google/uuid"
)

// Apply categorizes txs in order and records one use per winning rule
// An engine failure aborts the whole batch before any stat is written
func (s *Svc) Apply(ctx context.Context, tenantID string, txs []domain.Transaction) (domain.ApplyResult, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.ApplyResult{}, err
	}

	unlock := s.locks.lock(tenantID)
	defer unlock()

	batchID := uuid.NewString()
	at := s.stamp()
	ctx = logger.WithBatch(store.WithTenant(ctx, tenantID), batchID)
	log := logger.C(ctx)

	set, err := s.ruleSet(ctx, tenantID)
	if err != nil {
		return domain.ApplyResult{}, err
	}
	wins := s.match(set, txs)

	keys := make([]string, len(txs))
	cats := make([]*string, len(txs))
	for i, w := range wins {
		if w.RuleKey == "" {
			continue
		}
		keys[i] = w.RuleKey
		c := w.Category
		cats[i] = &c
	}

	deltas := usage.ComputeDeltas(keys, at)
	res := domain.ApplyResult{BatchID: batchID, Categories: cats}
	if len(deltas) == 0 {
		log.Debug().Int("batch_size", len(txs)).Msg("apply matched nothing")
		return res, nil
	}

	var written []string
	err = store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		for _, key := range usage.SortedKeys(deltas) {
			err := r.BumpUsage(ctx, tenantID, key, deltas[key].LastUsedAt)
			switch {
			case perr.IsCode(err, perr.ErrorCodeNotFound):
				// deleted by another process since the snapshot was loaded
				log.Warn().Str("rule_key", key).Msg("rule vanished before usage write")
			case err != nil:
				return err
			default:
				written = append(written, key)
			}
		}
		return nil
	})
	if err != nil {
		return domain.ApplyResult{}, err
	}
	s.cache.Invalidate(tenantID)
	res.Touched = len(written)

	log.Info().Int("batch_size", len(txs)).Int("touched_rules", res.Touched).Msg("apply done")
	s.record(ctx, tenantID, batchID, len(txs), written, deltas)
	return res, nil
}

// Preview runs the same matching as Apply without writing anything
func (s *Svc) Preview(ctx context.Context, tenantID string, txs []domain.Transaction) ([]domain.Match, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	set, err := s.ruleSet(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	wins := s.match(set, txs)
	out := make([]domain.Match, len(txs))
	for i, w := range wins {
		if w.RuleKey == "" {
			continue
		}
		out[i] = domain.Match{RuleKey: w.RuleKey, Category: w.Category, Matched: true}
	}
	return out, nil
}

func (s *Svc) ruleSet(ctx context.Context, tenantID string) (*matcher.Set, error) {
	set, err := s.cache.GetOrLoad(ctx, tenantID, func(ctx context.Context) (*matcher.Set, error) {
		rows, err := s.Repo.ForMatching(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		rules := make([]matcher.Rule, len(rows))
		for i, r := range rows {
			rules[i] = matcher.Rule{
				Key:        r.Key,
				Pattern:    r.Pattern,
				IsRegex:    r.IsRegex,
				Category:   r.Category,
				ModifiedAt: r.ModifiedAt,
			}
		}
		return matcher.Compile(matcher.ByRecency(rules))
	})
	if err != nil && perr.IsCode(err, perr.ErrorCodeEngine) {
		logger.C(ctx).Error().Err(err).Str("tenant_id", tenantID).Msg("stored rule rejected by regex engine")
	}
	return set, err
}

// match fans txs out over the worker pool, each worker only writes its own slot
func (s *Svc) match(set *matcher.Set, txs []domain.Transaction) []matcher.Match {
	out := make([]matcher.Match, len(txs))
	if set.Len() == 0 || len(txs) == 0 {
		return out
	}

	workers := min(s.cfg.Workers, len(txs))
	if workers == 1 {
		for i := range txs {
			out[i], _ = set.BestMatch(txs[i].Payee)
		}
		return out
	}

	sem := make(chan struct{}, workers)
	wg := sync.WaitGroup{}
	for i := range txs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer func() { <-sem; wg.Done() }()
			out[i], _ = set.BestMatch(txs[i].Payee)
		}(i)
	}
	wg.Wait()
	return out
}

// record hands the batch to the usage sink, the stats are already committed so a failure only logs
func (s *Svc) record(ctx context.Context, tenantID, batchID string, size int, keys []string, deltas map[string]usage.Delta) {
	if s.usage == nil || len(keys) == 0 {
		return
	}
	events := make([]domain.UsageEvent, 0, len(keys))
	for _, k := range keys {
		d := deltas[k]
		events = append(events, domain.UsageEvent{
			TenantID:  tenantID,
			RuleKey:   k,
			BatchID:   batchID,
			Matched:   d.Matched,
			BatchSize: size,
			At:        d.LastUsedAt,
		})
	}
	if err := s.usage.Record(ctx, events); err != nil {
		logger.C(ctx).Warn().Err(err).Int("events", len(events)).Msg("usage events not recorded")
	}
}
