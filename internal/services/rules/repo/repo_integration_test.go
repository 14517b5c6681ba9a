//go:build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/store"
	"payeerules/internal/services/rules/domain"

	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "rules",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		cancel()
		t.Fatalf("start postgres: %v", err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/rules?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
}

func openRepo(t *testing.T) (store.TxRunner, Repo) {
	t.Helper()
	dsn, stop := startPostgres(t)
	t.Cleanup(stop)

	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{
		AppName: "rules-it",
		PG:      store.PGConfig{Enabled: true, URL: dsn, ConnectRetries: 20},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if err := EnsureSchema(ctx, s.PG); err != nil {
		t.Fatalf("schema: %v", err)
	}
	// twice, the DDL must be idempotent
	if err := EnsureSchema(ctx, s.PG); err != nil {
		t.Fatalf("schema again: %v", err)
	}
	return s.PG, NewPG().Bind(s.PG)
}

func seed(t *testing.T, r Repo, tenant, pattern, category string, mod time.Time) domain.Rule {
	t.Helper()
	rule := domain.Rule{
		Key: uuid.NewString(), TenantID: tenant, Pattern: pattern, Category: category,
		CreatedAt: mod, ModifiedAt: mod,
	}
	if err := r.Insert(context.Background(), rule); err != nil {
		t.Fatalf("insert %s: %v", pattern, err)
	}
	return rule
}

func TestRepoLifecycle(t *testing.T) {
	_, r := openRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	amazon := seed(t, r, "t1", "amazon", "Shopping:Online", base)
	uber := seed(t, r, "t1", "uber", "Transport", base.Add(time.Hour))
	seed(t, r, "t2", "amazon", "Other", base)

	got, err := r.Get(ctx, "t1", amazon.Key)
	if err != nil || got.Category != "Shopping:Online" || got.LastUsedAt != nil {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := r.Get(ctx, "t2", amazon.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("cross tenant get: %v", err)
	}

	ordered, err := r.ForMatching(ctx, "t1")
	if err != nil || len(ordered) != 2 || ordered[0].Key != uber.Key {
		t.Fatalf("for matching: %+v %v", ordered, err)
	}

	amazon.Category = "Shopping"
	amazon.ModifiedAt = base.Add(2 * time.Hour)
	if err := r.Update(ctx, amazon); err != nil {
		t.Fatalf("update: %v", err)
	}
	wrong := amazon
	wrong.TenantID = "t2"
	wrong.Key = uuid.NewString()
	if err := r.Update(ctx, wrong); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("update missing: %v", err)
	}

	at := base.Add(3 * time.Hour)
	if err := r.BumpUsage(ctx, "t1", amazon.Key, at); err != nil {
		t.Fatalf("bump: %v", err)
	}
	got, _ = r.Get(ctx, "t1", amazon.Key)
	if got.MatchCount != 1 || got.LastUsedAt == nil || !got.LastUsedAt.Equal(at) {
		t.Fatalf("after bump: %+v", got)
	}

	if err := r.Delete(ctx, "t2", uber.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("cross tenant delete: %v", err)
	}
	if err := r.Delete(ctx, "t1", uber.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.Get(ctx, "t1", uber.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("get deleted: %v", err)
	}
}

func TestRepoListSortAndSearch(t *testing.T) {
	_, r := openRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := seed(t, r, "t1", "Zelle", "Transfers", base)
	b := seed(t, r, "t1", "amazon", "Shopping", base)
	c := seed(t, r, "t1", "50%_off", "Deals", base)
	_ = r.BumpUsage(ctx, "t1", b.Key, base.Add(time.Hour))
	_ = r.BumpUsage(ctx, "t1", a.Key, base.Add(2*time.Hour))

	keys := func(rs []domain.Rule) []string {
		out := make([]string, len(rs))
		for i, x := range rs {
			out[i] = x.Key
		}
		return out
	}
	check := func(name string, in domain.ListInput, want []string, wantTotal int) {
		t.Helper()
		rows, total, err := r.List(ctx, "t1", in)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if total != wantTotal || fmt.Sprint(keys(rows)) != fmt.Sprint(want) {
			t.Fatalf("%s: got %v total %d, want %v total %d", name, keys(rows), total, want, wantTotal)
		}
	}

	check("pattern", domain.ListInput{Page: 1, PageSize: 10, Sort: domain.SortPattern}, []string{c.Key, b.Key, a.Key}, 3)
	check("category", domain.ListInput{Page: 1, PageSize: 10, Sort: domain.SortCategory}, []string{c.Key, b.Key, a.Key}, 3)
	check("last used", domain.ListInput{Page: 1, PageSize: 10, Sort: domain.SortLastUsed}, []string{a.Key, b.Key, c.Key}, 3)
	check("page two", domain.ListInput{Page: 2, PageSize: 2, Sort: domain.SortPattern}, []string{a.Key}, 3)
	check("search ci", domain.ListInput{Page: 1, PageSize: 10, Search: "AMAZ"}, []string{b.Key}, 1)
	check("search category", domain.ListInput{Page: 1, PageSize: 10, Search: "transf"}, []string{a.Key}, 1)
	check("search literal wildcard", domain.ListInput{Page: 1, PageSize: 10, Search: "%_"}, []string{c.Key}, 1)
}

func TestRepoCheckConstraint(t *testing.T) {
	_, r := openRepo(t)
	err := r.Insert(context.Background(), domain.Rule{
		Key: uuid.NewString(), TenantID: "t1", Pattern: "x", Category: "",
		CreatedAt: time.Now(), ModifiedAt: time.Now(),
	})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation, got %v", err)
	}
}
