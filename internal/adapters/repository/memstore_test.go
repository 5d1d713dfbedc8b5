package repository

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *MemStore {
	t.Helper()
	s := NewMemStore(context.Background(), WithJanitorInterval(time.Hour))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStringSetGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, found, _ := s.Get(ctx, "missing"); found {
		t.Fatal("expected miss on empty store")
	}

	if _, err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != "v" {
		t.Fatalf("get = (%q, %v, %v), want (v, true, nil)", v, found, err)
	}
}

func TestSetIfNotExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.Set(ctx, "lock", "a", IfNotExists())
	if err != nil || !ok {
		t.Fatalf("first setnx = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.Set(ctx, "lock", "b", IfNotExists())
	if err != nil || ok {
		t.Fatalf("second setnx = (%v, %v), want (false, nil)", ok, err)
	}
	v, _, _ := s.Get(ctx, "lock")
	if v != "a" {
		t.Fatalf("lock holder = %q, want a", v)
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := &now
	s := NewMemStore(ctx,
		WithJanitorInterval(time.Hour),
		WithClock(func() time.Time { return *clock }),
	)
	t.Cleanup(func() { _ = s.Close() })

	if _, err := s.Set(ctx, "k", "v", WithTTL(10*time.Second)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	ttl, found, _ := s.TTL(ctx, "k")
	if !found || ttl != 10*time.Second {
		t.Fatalf("ttl = (%v, %v), want (10s, true)", ttl, found)
	}

	*clock = now.Add(11 * time.Second)
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatal("expired key still readable")
	}

	// A fresh lock can be taken once the previous holder expires.
	ok, _ := s.Set(ctx, "k", "w", IfNotExists())
	if !ok {
		t.Fatal("setnx should succeed on an expired key")
	}
}

func TestIncr(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr(ctx, "counter")
		if err != nil || n != want {
			t.Fatalf("incr = (%d, %v), want (%d, nil)", n, err, want)
		}
	}
}

func TestHashOps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.HSet(ctx, "h", map[string]string{"wins": "3", "elo": "1000"}); err != nil {
		t.Fatalf("hset failed: %v", err)
	}

	n, err := s.HIncrBy(ctx, "h", "wins", 2)
	if err != nil || n != 5 {
		t.Fatalf("hincrby = (%d, %v), want (5, nil)", n, err)
	}
	n, err = s.HIncrBy(ctx, "h", "losses", 1)
	if err != nil || n != 1 {
		t.Fatalf("hincrby fresh field = (%d, %v), want (1, nil)", n, err)
	}

	all, err := s.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if all["wins"] != "5" || all["losses"] != "1" || all["elo"] != "1000" {
		t.Fatalf("unexpected hash contents: %v", all)
	}

	if all, _ := s.HGetAll(ctx, "nope"); len(all) != 0 {
		t.Fatal("hgetall on a missing key should be empty, not nil-error")
	}
}

func TestWrongTypeRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := s.HSet(ctx, "k", map[string]string{"a": "b"}); err != ErrWrongType {
		t.Fatalf("hset on a string = %v, want ErrWrongType", err)
	}
	if err := s.ZAdd(ctx, "k", 1, "m"); err != ErrWrongType {
		t.Fatalf("zadd on a string = %v, want ErrWrongType", err)
	}
}

func TestZSetThroughStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, id := range []string{"a", "b", "c", "d"} {
		if err := s.ZAdd(ctx, "board", float64(i), id); err != nil {
			t.Fatal(err)
		}
	}

	top, err := s.ZRevRange(ctx, "board", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0] != "d" || top[1] != "c" {
		t.Fatalf("zrevrange top-2 = %v, want [d c]", top)
	}

	rank, found, _ := s.ZRevRank(ctx, "board", "a")
	if !found || rank != 3 {
		t.Fatalf("zrevrank(a) = (%d, %v), want (3, true)", rank, found)
	}

	all, _ := s.ZRange(ctx, "board", 0, -1)
	if len(all) != 4 || all[0] != "a" {
		t.Fatalf("zrange full = %v", all)
	}
}

func TestListPushTrimRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, v := range []string{"first", "second", "third"} {
		if err := s.LPush(ctx, "hist", v); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LRange(ctx, "hist", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"third", "second", "first"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lrange = %v, want %v", got, want)
		}
	}

	if err := s.LTrim(ctx, "hist", 0, 1); err != nil {
		t.Fatal(err)
	}
	got, _ = s.LRange(ctx, "hist", 0, -1)
	if len(got) != 2 || got[0] != "third" || got[1] != "second" {
		t.Fatalf("after trim = %v, want [third second]", got)
	}
}

func TestListCapPattern(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Push-then-trim keeps only the newest 50 entries.
	for i := 0; i < 60; i++ {
		if err := s.LPush(ctx, "hist", formatInt64(int64(i))); err != nil {
			t.Fatal(err)
		}
		if err := s.LTrim(ctx, "hist", 0, 49); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := s.LRange(ctx, "hist", 0, -1)
	if len(got) != 50 {
		t.Fatalf("capped list length = %d, want 50", len(got))
	}
	if got[0] != "59" || got[49] != "10" {
		t.Fatalf("capped list window = [%s .. %s], want [59 .. 10]", got[0], got[49])
	}
}

func TestSets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SAdd(ctx, "voters", "ip1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SAdd(ctx, "voters", "ip1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SAdd(ctx, "voters", "ip2"); err != nil {
		t.Fatal(err)
	}

	ok, _ := s.SIsMember(ctx, "voters", "ip1")
	if !ok {
		t.Fatal("ip1 should be a member")
	}
	ok, _ = s.SIsMember(ctx, "voters", "ip9")
	if ok {
		t.Fatal("ip9 should not be a member")
	}

	members, _ := s.SMembers(ctx, "voters")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	if err := s.SRem(ctx, "voters", "ip1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.SIsMember(ctx, "voters", "ip1"); ok {
		t.Fatal("ip1 should be gone after srem")
	}
}

func TestMGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, _ = s.Set(ctx, "a", "1")
	_, _ = s.Set(ctx, "c", "3")

	got, err := s.MGet(ctx, "a", "b", "c")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "1" || got[1] != "" || got[2] != "3" {
		t.Fatalf("mget = %v, want [1  3]", got)
	}
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, _ = s.Set(ctx, "str", "v")
	_ = s.HSet(ctx, "h", map[string]string{"wins": "7"})
	_ = s.LPush(ctx, "l", "x", "y")
	_ = s.ZAdd(ctx, "z", 1, "a")
	_ = s.ZAdd(ctx, "z", 2, "b")

	p := s.Pipeline()
	p.Get("str")
	p.HGet("h", "wins")
	p.HGetAll("h")
	p.LRange("l", 0, -1)
	p.ZRevRank("z", "a")
	p.Get("missing")

	res, err := p.Exec(ctx)
	if err != nil {
		t.Fatalf("pipeline exec failed: %v", err)
	}
	if len(res) != 6 {
		t.Fatalf("expected 6 results, got %d", len(res))
	}
	if !res[0].Found || res[0].Value != "v" {
		t.Errorf("get result = %+v", res[0])
	}
	if !res[1].Found || res[1].Value != "7" {
		t.Errorf("hget result = %+v", res[1])
	}
	if res[2].Hash["wins"] != "7" {
		t.Errorf("hgetall result = %+v", res[2])
	}
	if len(res[3].List) != 2 {
		t.Errorf("lrange result = %+v", res[3])
	}
	if !res[4].Found || res[4].Rank != 1 {
		t.Errorf("zrevrank result = %+v", res[4])
	}
	if res[5].Found {
		t.Errorf("missing key reported found: %+v", res[5])
	}
}

func TestFlushAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, _ = s.Set(ctx, "a", "1")
	_ = s.HSet(ctx, "h", map[string]string{"x": "y"})

	if err := s.FlushAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Get(ctx, "a"); found {
		t.Fatal("flush left string key behind")
	}
	if all, _ := s.HGetAll(ctx, "h"); len(all) != 0 {
		t.Fatal("flush left hash behind")
	}
}

func TestJanitorSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	var clock = now
	s := NewMemStore(ctx,
		WithJanitorInterval(5*time.Millisecond),
		WithClock(func() time.Time { return clock }),
	)
	t.Cleanup(func() { _ = s.Close() })

	_, _ = s.Set(ctx, "short", "v", WithTTL(time.Second))
	clock = now.Add(2 * time.Second)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.RLock()
		_, present := s.entries["short"]
		s.mu.RUnlock()
		if !present {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("janitor never swept the expired key")
}

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		name        string
		start, stop int
		n           int
		lo, hi      int
		ok          bool
	}{
		{"full", 0, -1, 5, 0, 4, true},
		{"window", 1, 3, 5, 1, 3, true},
		{"negative both", -2, -1, 5, 3, 4, true},
		{"clamped stop", 0, 99, 5, 0, 4, true},
		{"empty store", 0, -1, 0, 0, 0, false},
		{"inverted", 3, 1, 5, 0, 0, false},
		{"start past end", 9, 10, 5, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, ok := normalizeRange(tt.start, tt.stop, tt.n)
			if ok != tt.ok || (ok && (lo != tt.lo || hi != tt.hi)) {
				t.Errorf("normalizeRange(%d, %d, %d) = (%d, %d, %v), want (%d, %d, %v)",
					tt.start, tt.stop, tt.n, lo, hi, ok, tt.lo, tt.hi, tt.ok)
			}
		})
	}
}
