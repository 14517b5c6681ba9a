package service

import (
	"context"
	"strings"
	"testing"
	"time"

	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/testkit"
	"payeerules/internal/services/rules/domain"

	"github.com/google/uuid"
)

var t0 = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func newSvc(t *testing.T, m *memRepo, cfg Config) (*Svc, *testkit.Clock) {
	t.Helper()
	clk := &testkit.Clock{At: t0}
	if cfg.Clock == nil {
		cfg.Clock = clk.Now
	}
	return New(&fakeDB{}, m.binder(), cfg), clk
}

func TestNewPanicsOnNil(t *testing.T) {
	t.Parallel()
	m := newMemRepo()
	testkit.MustPanic(t, func() { New(nil, m.binder(), Config{}) })
	testkit.MustPanic(t, func() { New(&fakeDB{}, nil, Config{}) })
}

func TestCreate(t *testing.T) {
	t.Parallel()
	m := newMemRepo()
	s, _ := newSvc(t, m, Config{})

	r, err := s.Create(context.Background(), "t1", domain.CreateInput{Pattern: "AMZN Mktp", Category: "  Shopping : Online  "})
	testkit.MustNoErr(t, err)

	if _, err := uuid.Parse(r.Key); err != nil {
		t.Fatalf("key %q is not a uuid", r.Key)
	}
	if r.Category != "Shopping:Online" {
		t.Fatalf("category %q", r.Category)
	}
	if !r.CreatedAt.Equal(t0) || !r.ModifiedAt.Equal(t0) || r.LastUsedAt != nil || r.MatchCount != 0 {
		t.Fatalf("fresh rule %+v", r)
	}
	if got, _ := m.Get(context.Background(), "t1", r.Key); got.Pattern != "AMZN Mktp" {
		t.Fatalf("not stored: %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", domain.MaxPatternLen+1)
	cases := []struct {
		name   string
		in     domain.CreateInput
		fields []string
		msg    string
	}{
		{"both empty", domain.CreateInput{}, []string{"pattern", "category"}, ""},
		{"blank pattern", domain.CreateInput{Pattern: "   ", Category: "Food"}, []string{"pattern"}, "blank"},
		{"blank category", domain.CreateInput{Pattern: "a", Category: "  \t "}, []string{"category"}, ""},
		{"too long", domain.CreateInput{Pattern: long, Category: long}, []string{"pattern", "category"}, "200"},
		{"bad regex and category", domain.CreateInput{Pattern: "(?<invalid", IsRegex: true, Category: ""}, []string{"pattern", "category"}, "Invalid regex pattern"},
		{"backreference", domain.CreateInput{Pattern: `(\w+)\s+\1`, IsRegex: true, Category: "x"}, []string{"pattern"}, "backreferences"},
		{"lookahead", domain.CreateInput{Pattern: `foo(?=bar)`, IsRegex: true, Category: "x"}, []string{"pattern"}, "ReDoS"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			m := newMemRepo()
			s, _ := newSvc(t, m, Config{})
			_, err := s.Create(context.Background(), "t1", c.in)
			if !perr.IsCode(err, perr.ErrorCodeValidation) {
				t.Fatalf("want validation, got %v", err)
			}
			fields := perr.FieldsOf(err)
			if len(fields) != len(c.fields) {
				t.Fatalf("fields %+v", fields)
			}
			for i, f := range fields {
				if f.Field != c.fields[i] {
					t.Fatalf("field %d = %q, want %q", i, f.Field, c.fields[i])
				}
			}
			if c.msg != "" {
				testkit.MustContain(t, fields[0].Message, c.msg)
			}
			if len(m.rules) != 0 {
				t.Fatal("invalid rule persisted")
			}
		})
	}
}

func TestCreateRegexAccepted(t *testing.T) {
	t.Parallel()
	s, _ := newSvc(t, newMemRepo(), Config{})
	_, err := s.Create(context.Background(), "t1", domain.CreateInput{Pattern: `^AMZN.*`, IsRegex: true, Category: "Shopping"})
	testkit.MustNoErr(t, err)
}

func TestCreateRequiresTenant(t *testing.T) {
	t.Parallel()
	s, _ := newSvc(t, newMemRepo(), Config{})
	_, err := s.Create(context.Background(), " ", domain.CreateInput{Pattern: "a", Category: "b"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	m := newMemRepo()
	s, clk := newSvc(t, m, Config{})
	ctx := context.Background()

	r, err := s.Create(ctx, "t1", domain.CreateInput{Pattern: "uber", Category: "Transport"})
	testkit.MustNoErr(t, err)

	// same instant, modification time must still move
	u, err := s.Update(ctx, "t1", r.Key, domain.UpdateInput{Pattern: "uber eats", Category: "Food : Delivery"})
	testkit.MustNoErr(t, err)
	if !u.ModifiedAt.After(r.ModifiedAt) || !u.CreatedAt.Equal(r.CreatedAt) {
		t.Fatalf("times %v -> %v", r.ModifiedAt, u.ModifiedAt)
	}
	if u.Category != "Food:Delivery" || u.Pattern != "uber eats" {
		t.Fatalf("updated %+v", u)
	}

	clk.Advance(time.Hour)
	u2, err := s.Update(ctx, "t1", r.Key, domain.UpdateInput{Pattern: "uber", Category: "Transport"})
	testkit.MustNoErr(t, err)
	if !u2.ModifiedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("modified %v", u2.ModifiedAt)
	}
}

func TestUpdateNotFound(t *testing.T) {
	t.Parallel()
	m := newMemRepo()
	s, _ := newSvc(t, m, Config{})
	ctx := context.Background()
	r, _ := s.Create(ctx, "t1", domain.CreateInput{Pattern: "uber", Category: "Transport"})

	in := domain.UpdateInput{Pattern: "x", Category: "y"}
	if _, err := s.Update(ctx, "t2", r.Key, in); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("other tenant: %v", err)
	}
	if _, err := s.Update(ctx, "t1", uuid.NewString(), in); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing: %v", err)
	}
	if got, _ := m.Get(ctx, "t1", r.Key); got.Pattern != "uber" {
		t.Fatal("rule changed through another tenant")
	}
}

func TestUpdateValidatesBeforeLoading(t *testing.T) {
	t.Parallel()
	s, _ := newSvc(t, newMemRepo(), Config{})
	_, err := s.Update(context.Background(), "t1", uuid.NewString(), domain.UpdateInput{Pattern: "a(?<=b)", IsRegex: true, Category: "c"})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("got %v", err)
	}
	testkit.MustContain(t, perr.FieldsOf(err)[0].Message, "lookbehind")
}

func TestDelete(t *testing.T) {
	t.Parallel()
	m := newMemRepo()
	s, _ := newSvc(t, m, Config{})
	ctx := context.Background()
	r, _ := s.Create(ctx, "t1", domain.CreateInput{Pattern: "uber", Category: "Transport"})

	if err := s.Delete(ctx, "t2", r.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("other tenant: %v", err)
	}
	testkit.MustNoErr(t, s.Delete(ctx, "t1", r.Key))
	if err := s.Delete(ctx, "t1", r.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Get(ctx, "t1", r.Key); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("get: %v", err)
	}
}

func TestListInputs(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   domain.ListInput
		want domain.ListInput
	}{
		{"defaults", domain.ListInput{}, domain.ListInput{Page: 1, PageSize: 25, Sort: domain.SortPattern}},
		{"clamped", domain.ListInput{Page: 3, PageSize: 500, Sort: domain.SortLastUsed}, domain.ListInput{Page: 3, PageSize: 100, Sort: domain.SortLastUsed}},
		{"search trimmed", domain.ListInput{Page: -1, PageSize: 10, Sort: "last_used_at", Search: "  amz "}, domain.ListInput{Page: 1, PageSize: 10, Sort: domain.SortLastUsed, Search: "amz"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			m := newMemRepo()
			s, _ := newSvc(t, m, Config{})
			p, err := s.List(context.Background(), "t1", c.in)
			testkit.MustNoErr(t, err)
			if m.listIn != c.want {
				t.Fatalf("repo got %+v, want %+v", m.listIn, c.want)
			}
			if p.Page != c.want.Page || p.PageSize != c.want.PageSize || p.Items == nil {
				t.Fatalf("page %+v", p)
			}
		})
	}
}

func TestListBadSort(t *testing.T) {
	t.Parallel()
	s, _ := newSvc(t, newMemRepo(), Config{})
	_, err := s.List(context.Background(), "t1", domain.ListInput{Sort: "created"})
	if f := perr.FieldsOf(err); len(f) != 1 || f[0].Field != "sort" {
		t.Fatalf("got %v", err)
	}
}

func TestValidatePattern(t *testing.T) {
	t.Parallel()
	s, _ := newSvc(t, newMemRepo(), Config{})

	if r := s.ValidatePattern(`^AMZN\s+Mktp`); !r.OK || r.Kind != "ok" {
		t.Fatalf("ok: %+v", r)
	}
	r := s.ValidatePattern(`(\w+)\s+\1`)
	if r.OK || r.Kind != "unsupported" || r.Feature != "backreferences" {
		t.Fatalf("backref: %+v", r)
	}
	if r := s.ValidatePattern("  "); r.Kind != "empty" {
		t.Fatalf("empty: %+v", r)
	}
}

func TestTenantLocksReleased(t *testing.T) {
	t.Parallel()
	l := newTenantLocks()
	u1 := l.lock("a")
	u2 := l.lock("b")
	if l.size() != 2 {
		t.Fatalf("size %d", l.size())
	}
	u1()
	u2()
	if l.size() != 0 {
		t.Fatalf("locks leaked: %d", l.size())
	}
}
