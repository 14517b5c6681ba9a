package usage

import (
	"reflect"
	"testing"
	"time"
)

var at = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func TestComputeDeltasDedupes(t *testing.T) {
	got := ComputeDeltas([]string{"r1", "r1", "r1"}, at)
	want := map[string]Delta{"r1": {IncrementBy: 1, LastUsedAt: at, Matched: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestComputeDeltasMixed(t *testing.T) {
	got := ComputeDeltas([]string{"a", "", "b", "a", "", "c"}, at)
	if len(got) != 3 {
		t.Fatalf("len %d", len(got))
	}
	for k, d := range got {
		if d.IncrementBy != 1 || !d.LastUsedAt.Equal(at) {
			t.Fatalf("%s: %+v", k, d)
		}
	}
	if got["a"].Matched != 2 || got["b"].Matched != 1 {
		t.Fatalf("matched %+v", got)
	}
}

func TestComputeDeltasEmpty(t *testing.T) {
	for _, in := range [][]string{nil, {}, {"", ""}} {
		if got := ComputeDeltas(in, at); len(got) != 0 {
			t.Fatalf("%v: got %+v", in, got)
		}
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(ComputeDeltas([]string{"c", "a", "b", "a"}, at))
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %v", got)
	}
	if len(SortedKeys(nil)) != 0 {
		t.Fatal("nil map")
	}
}
