package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"payeerules/internal/core/matcher"
	perr "payeerules/internal/platform/errors"
	str "payeerules/internal/platform/strings"
	"payeerules/internal/platform/testkit"
	"payeerules/internal/services/rules/cache"
	"payeerules/internal/services/rules/domain"
)

func rule(key, pattern string, regex bool, category string, mod time.Time) domain.Rule {
	return domain.Rule{Key: key, TenantID: "t1", Pattern: pattern, IsRegex: regex, Category: category, CreatedAt: mod, ModifiedAt: mod}
}

func payees(ps ...string) []domain.Transaction {
	out := make([]domain.Transaction, len(ps))
	for i, p := range ps {
		out[i] = domain.Transaction{Payee: p}
	}
	return out
}

func cats(res domain.ApplyResult) []string {
	out := make([]string, len(res.Categories))
	for i, c := range res.Categories {
		out[i] = str.Deref(c)
	}
	return out
}

func TestApplyLongestSubstringWins(t *testing.T) {
	t.Parallel()
	m := newMemRepo(
		rule("a", "Amazon", false, "Online", t0),
		rule("b", "Amazon Prime", false, "Subscription", t0.Add(-time.Hour)),
	)
	s, _ := newSvc(t, m, Config{})

	res, err := s.Apply(context.Background(), "t1", payees("Amazon Prime Video", "Amazon.com", "Netflix"))
	testkit.MustNoErr(t, err)
	if got := fmt.Sprint(cats(res)); got != "[Subscription Online ]" {
		t.Fatalf("categories %s", got)
	}
	if res.Categories[2] != nil {
		t.Fatal("unmatched transaction should be nil")
	}
	if res.Touched != 2 || res.BatchID == "" {
		t.Fatalf("result %+v", res)
	}
}

func TestApplyRegexBeatsSubstring(t *testing.T) {
	t.Parallel()
	m := newMemRepo(
		rule("sub", "Amazon", false, "Online", t0),
		rule("re", "^AMZN.*", true, "Shopping", t0.Add(-time.Hour)),
	)
	s, _ := newSvc(t, m, Config{})

	res, err := s.Apply(context.Background(), "t1", payees("AMZN Marketplace", "AMZN Amazon", "amazon fresh"))
	testkit.MustNoErr(t, err)
	if got := fmt.Sprint(cats(res)); got != "[Shopping Shopping Online]" {
		t.Fatalf("categories %s", got)
	}
}

func TestApplyCountsOncePerBatch(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "starbucks", false, "Coffee", t0))
	s, clk := newSvc(t, m, Config{Workers: 3})
	clk.At = t0.Add(time.Hour)

	res, err := s.Apply(context.Background(), "t1", payees("STARBUCKS 1", "Starbucks 2", "starbucks 3"))
	testkit.MustNoErr(t, err)
	if len(res.Categories) != 3 {
		t.Fatalf("len %d", len(res.Categories))
	}
	if len(m.bumps) != 1 || m.bumps[0].key != "a" || !m.bumps[0].at.Equal(clk.At) {
		t.Fatalf("bumps %+v", m.bumps)
	}
	got, _ := m.Get(context.Background(), "t1", "a")
	if got.MatchCount != 1 || got.LastUsedAt == nil || !got.LastUsedAt.Equal(clk.At) {
		t.Fatalf("rule after apply %+v", got)
	}
}

func TestApplyNoMatchesWritesNothing(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0))
	db := &fakeDB{}
	s := New(db, m.binder(), Config{})

	res, err := s.Apply(context.Background(), "t1", payees("", "   ", "lyft"))
	testkit.MustNoErr(t, err)
	if len(res.Categories) != 3 || res.Touched != 0 {
		t.Fatalf("result %+v", res)
	}
	if db.txs != 0 || len(m.bumps) != 0 {
		t.Fatalf("wrote stats: txs %d bumps %d", db.txs, len(m.bumps))
	}
}

func TestApplyEmptyBatch(t *testing.T) {
	t.Parallel()
	s, _ := newSvc(t, newMemRepo(rule("a", "uber", false, "Transport", t0)), Config{})
	res, err := s.Apply(context.Background(), "t1", nil)
	testkit.MustNoErr(t, err)
	if len(res.Categories) != 0 {
		t.Fatalf("categories %v", res.Categories)
	}
}

func TestApplyPreservesOrderAcrossWorkers(t *testing.T) {
	t.Parallel()
	m := newMemRepo(
		rule("even", "even", false, "E", t0),
		rule("odd", "odd", false, "O", t0),
	)
	s, _ := newSvc(t, m, Config{Workers: 8})

	in := make([]domain.Transaction, 500)
	for i := range in {
		if i%2 == 0 {
			in[i].Payee = fmt.Sprintf("even %d", i)
		} else {
			in[i].Payee = fmt.Sprintf("odd %d", i)
		}
	}
	res, err := s.Apply(context.Background(), "t1", in)
	testkit.MustNoErr(t, err)
	for i, c := range cats(res) {
		want := "O"
		if i%2 == 0 {
			want = "E"
		}
		if c != want {
			t.Fatalf("slot %d = %q", i, c)
		}
	}
	if len(m.bumps) != 2 {
		t.Fatalf("bumps %+v", m.bumps)
	}
}

func TestApplyEngineFailureAbortsBatch(t *testing.T) {
	t.Parallel()
	m := newMemRepo(
		rule("ok", "uber", false, "Transport", t0),
		rule("bad", `foo(?=bar)`, true, "Broken", t0),
	)
	db := &fakeDB{}
	s := New(db, m.binder(), Config{})

	_, err := s.Apply(context.Background(), "t1", payees("uber trip"))
	if !perr.IsCode(err, perr.ErrorCodeEngine) {
		t.Fatalf("want engine failure, got %v", err)
	}
	if db.txs != 0 || len(m.bumps) != 0 {
		t.Fatal("partial writes after engine failure")
	}
	if _, err := s.Preview(context.Background(), "t1", payees("uber trip")); !perr.IsCode(err, perr.ErrorCodeEngine) {
		t.Fatalf("preview: %v", err)
	}
}

func TestApplyStoreFailure(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0))
	m.bumpErr = perr.New(perr.ErrorCodeDB, "down")
	s, _ := newSvc(t, m, Config{})

	if _, err := s.Apply(context.Background(), "t1", payees("uber")); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("got %v", err)
	}
}

func TestApplySkipsVanishedRule(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0), rule("b", "lyft", false, "Transport", t0))
	s, _ := newSvc(t, m, Config{})
	ctx := context.Background()

	// warm the cache, then remove a rule behind the service's back
	_, err := s.Preview(ctx, "t1", payees("uber"))
	testkit.MustNoErr(t, err)
	delete(m.rules, "b")

	res, err := s.Apply(ctx, "t1", payees("uber", "lyft"))
	testkit.MustNoErr(t, err)
	if res.Touched != 1 || len(res.Categories) != 2 {
		t.Fatalf("result %+v", res)
	}
}

func TestApplyCacheLifecycle(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0))
	s, _ := newSvc(t, m, Config{})
	ctx := context.Background()

	_, _ = s.Preview(ctx, "t1", payees("uber"))
	_, _ = s.Preview(ctx, "t1", payees("uber"))
	if m.loads != 1 {
		t.Fatalf("loads %d", m.loads)
	}

	_, err := s.Create(ctx, "t1", domain.CreateInput{Pattern: "uber eats", Category: "Food"})
	testkit.MustNoErr(t, err)
	got, err := s.Preview(ctx, "t1", payees("UBER EATS 123"))
	testkit.MustNoErr(t, err)
	if m.loads != 2 || got[0].Category != "Food" || !got[0].Matched {
		t.Fatalf("loads %d preview %+v", m.loads, got)
	}

	// other tenants keep their own snapshot
	_, _ = s.Preview(ctx, "t2", payees("uber"))
	if m.loads != 3 {
		t.Fatalf("loads %d", m.loads)
	}
}

func TestApplyCacheDisabled(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0))
	s, _ := newSvc(t, m, Config{Cache: cache.Disabled[*matcher.Set]{}})
	for range 3 {
		_, _ = s.Preview(context.Background(), "t1", payees("uber"))
	}
	if m.loads != 3 {
		t.Fatalf("loads %d", m.loads)
	}
}

func TestPreviewWritesNothing(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0))
	s, _ := newSvc(t, m, Config{})

	got, err := s.Preview(context.Background(), "t1", payees("uber", "lyft"))
	testkit.MustNoErr(t, err)
	if len(got) != 2 || got[0].RuleKey != "a" || got[1].Matched {
		t.Fatalf("preview %+v", got)
	}
	if len(m.bumps) != 0 {
		t.Fatal("preview wrote stats")
	}
}

func TestApplyRecordsUsage(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0), rule("b", "lyft", false, "Transport", t0))
	var got []domain.UsageEvent
	sink := sinkFunc(func(_ context.Context, ev []domain.UsageEvent) error {
		got = append(got, ev...)
		return nil
	})
	s, clk := newSvc(t, m, Config{Usage: sink})

	res, err := s.Apply(context.Background(), "t1", payees("uber 1", "uber 2", "lyft", "bus"))
	testkit.MustNoErr(t, err)
	if len(got) != 2 {
		t.Fatalf("events %+v", got)
	}
	if got[0].RuleKey != "a" || got[0].Matched != 2 || got[1].Matched != 1 {
		t.Fatalf("events %+v", got)
	}
	for _, ev := range got {
		if ev.BatchID != res.BatchID || ev.BatchSize != 4 || ev.TenantID != "t1" || !ev.At.Equal(clk.At) {
			t.Fatalf("event %+v", ev)
		}
	}
}

func TestApplyUsageFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0))
	sink := sinkFunc(func(context.Context, []domain.UsageEvent) error { return errors.New("clickhouse down") })
	s, _ := newSvc(t, m, Config{Usage: sink})

	res, err := s.Apply(context.Background(), "t1", payees("uber"))
	testkit.MustNoErr(t, err)
	if res.Touched != 1 {
		t.Fatalf("result %+v", res)
	}
}

func TestApplySerializedPerTenant(t *testing.T) {
	t.Parallel()
	m := newMemRepo(rule("a", "uber", false, "Transport", t0))
	s, _ := newSvc(t, m, Config{})
	ctx := context.Background()

	done := make(chan error, 20)
	for i := range 20 {
		go func() {
			if i%5 == 0 {
				_, err := s.Create(ctx, "t1", domain.CreateInput{Pattern: fmt.Sprintf("p%d", i), Category: "c"})
				done <- err
				return
			}
			_, err := s.Apply(ctx, "t1", payees("uber"))
			done <- err
		}()
	}
	for range 20 {
		testkit.MustNoErr(t, <-done)
	}
	got, _ := m.Get(ctx, "t1", "a")
	if got.MatchCount != 16 {
		t.Fatalf("match count %d", got.MatchCount)
	}
	if s.locks.size() != 0 {
		t.Fatal("tenant locks leaked")
	}
}
