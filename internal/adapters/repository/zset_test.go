package repository

import (
	"math/rand"
	"testing"
)

func newTestZSet() *zset {
	return newZSet(rand.New(rand.NewSource(1)))
}

func TestZSetAddAndCard(t *testing.T) {
	z := newTestZSet()
	if z.card() != 0 {
		t.Fatalf("expected empty zset, got card %d", z.card())
	}

	z.add("a", 1)
	z.add("b", 2)
	z.add("c", 3)
	if z.card() != 3 {
		t.Fatalf("expected card 3, got %d", z.card())
	}

	// Re-adding an existing member updates the score, not the cardinality.
	z.add("b", 10)
	if z.card() != 3 {
		t.Fatalf("expected card 3 after score update, got %d", z.card())
	}
}

func TestZSetRangeAscOrdering(t *testing.T) {
	z := newTestZSet()
	z.add("charlie", 5)
	z.add("alpha", 1)
	z.add("bravo", 3)
	z.add("delta", 3) // tie with bravo, member order breaks it

	got := z.rangeAsc(0, 3)
	want := []string{"alpha", "bravo", "delta", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rangeAsc[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestZSetRevRank(t *testing.T) {
	z := newTestZSet()
	z.add("low", 1)
	z.add("mid", 5)
	z.add("high", 9)

	tests := []struct {
		member string
		rank   int
		found  bool
	}{
		{"high", 0, true},
		{"mid", 1, true},
		{"low", 2, true},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		rank, found := z.revRank(tt.member)
		if found != tt.found || rank != tt.rank {
			t.Errorf("revRank(%q) = (%d, %v), want (%d, %v)", tt.member, rank, found, tt.rank, tt.found)
		}
	}
}

func TestZSetScoreUpdateMovesRank(t *testing.T) {
	z := newTestZSet()
	z.add("a", 1)
	z.add("b", 2)
	z.add("c", 3)

	z.add("a", 100)
	rank, found := z.revRank("a")
	if !found || rank != 0 {
		t.Fatalf("expected a to lead after score bump, got rank %d found %v", rank, found)
	}
}

func TestZSetRemove(t *testing.T) {
	z := newTestZSet()
	z.add("a", 1)
	z.add("b", 2)
	z.rem("a")
	z.rem("not-there")

	if z.card() != 1 {
		t.Fatalf("expected card 1, got %d", z.card())
	}
	if _, found := z.revRank("a"); found {
		t.Error("removed member still has a rank")
	}
}

func TestZSetLargeInsertKeepsOrder(t *testing.T) {
	z := newTestZSet()
	rng := rand.New(rand.NewSource(42))
	const n = 2000
	for i := 0; i < n; i++ {
		z.add(formatInt64(int64(i)), float64(rng.Intn(500)))
	}
	if z.card() != n {
		t.Fatalf("expected card %d, got %d", n, z.card())
	}

	members := z.rangeAsc(0, n-1)
	for i := 1; i < len(members); i++ {
		prev, cur := z.byMember[members[i-1]], z.byMember[members[i]]
		if prev > cur {
			t.Fatalf("order violated at %d: %f > %f", i, prev, cur)
		}
		if prev == cur && members[i-1] >= members[i] {
			t.Fatalf("member tiebreak violated at %d: %q >= %q", i, members[i-1], members[i])
		}
	}
}
