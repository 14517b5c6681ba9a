package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"payeerules/internal/modkit/repokit"
	perr "payeerules/internal/platform/errors"
	"payeerules/internal/services/rules/domain"
	"payeerules/internal/services/rules/repo"
)

type fakeDB struct{ txs int }

func (f *fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	return nil, errors.New("not used")
}
func (f *fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error) {
	return nil, errors.New("not used")
}
func (f *fakeDB) QueryRow(context.Context, string, ...any) repokit.Row { return nil }
func (f *fakeDB) Tx(_ context.Context, fn func(repokit.Queryer) error) error {
	f.txs++
	return fn(f)
}

type bump struct {
	key string
	at  time.Time
}

// memRepo is an in-memory repo.Repo keyed by tenant then key
type memRepo struct {
	mu      sync.Mutex
	rules   map[string]domain.Rule
	bumps   []bump
	loads   int
	listIn  domain.ListInput
	bumpErr error
}

func newMemRepo(rules ...domain.Rule) *memRepo {
	m := &memRepo{rules: map[string]domain.Rule{}}
	for _, r := range rules {
		m.rules[r.Key] = r
	}
	return m
}

func (m *memRepo) binder() repokit.Binder[repo.Repo] {
	return repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return m })
}

func (m *memRepo) Insert(_ context.Context, r domain.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[r.Key] = r
	return nil
}

func (m *memRepo) Get(_ context.Context, tenantID, key string) (domain.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[key]
	if !ok || r.TenantID != tenantID {
		return domain.Rule{}, perr.NotFoundf("rule %s not found", key)
	}
	return r, nil
}

func (m *memRepo) Update(_ context.Context, r domain.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rules[r.Key]
	if !ok || cur.TenantID != r.TenantID {
		return perr.NotFoundf("rule %s not found", r.Key)
	}
	m.rules[r.Key] = r
	return nil
}

func (m *memRepo) Delete(_ context.Context, tenantID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rules[key]
	if !ok || cur.TenantID != tenantID {
		return perr.NotFoundf("rule %s not found", key)
	}
	delete(m.rules, key)
	return nil
}

func (m *memRepo) ForMatching(_ context.Context, tenantID string) ([]domain.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	var out []domain.Rule
	for _, r := range m.rules {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) List(_ context.Context, tenantID string, in domain.ListInput) ([]domain.Rule, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listIn = in
	return nil, 0, nil
}

func (m *memRepo) BumpUsage(_ context.Context, tenantID, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bumpErr != nil {
		return m.bumpErr
	}
	r, ok := m.rules[key]
	if !ok || r.TenantID != tenantID {
		return perr.NotFoundf("rule %s not found", key)
	}
	r.MatchCount++
	r.LastUsedAt = &at
	m.rules[key] = r
	m.bumps = append(m.bumps, bump{key: key, at: at})
	return nil
}

type sinkFunc func(context.Context, []domain.UsageEvent) error

func (f sinkFunc) Record(ctx context.Context, ev []domain.UsageEvent) error { return f(ctx, ev) }
