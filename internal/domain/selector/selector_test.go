package selector

import (
	"context"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/internal/domain/period"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestSelector(t *testing.T, catSize int, opts ...Option) (*Selector, repository.Store) {
	t.Helper()
	store := repository.NewMemStore(context.Background(),
		repository.WithJanitorInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })

	base := []Option{WithRand(rand.New(rand.NewSource(7)))}
	s, err := New(store, catalog.Synthetic(catSize), logger.Get(), append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return s, store
}

func setMatches(t *testing.T, store repository.Store, id, matches int) {
	t.Helper()
	err := store.HSet(context.Background(), period.AllTime.StatsKey(id),
		map[string]string{"matches": strconv.Itoa(matches)})
	if err != nil {
		t.Fatal(err)
	}
}

func TestNewRejectsTinyCatalog(t *testing.T) {
	store := repository.NewMemStore(context.Background(),
		repository.WithJanitorInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })

	if _, err := New(store, catalog.Synthetic(1), logger.Get()); err != ErrCatalogTooSmall {
		t.Fatalf("expected ErrCatalogTooSmall, got %v", err)
	}
	if _, err := New(store, nil, logger.Get()); err != ErrCatalogTooSmall {
		t.Fatalf("nil catalog: expected ErrCatalogTooSmall, got %v", err)
	}
}

func TestDrawReturnsDistinctItems(t *testing.T) {
	s, _ := newTestSelector(t, 20)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		p, err := s.Draw(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if p.A.ID == p.B.ID {
			t.Fatalf("draw %d returned identical items: %d", i, p.A.ID)
		}
		if p.A.URL == p.B.URL {
			t.Fatalf("draw %d returned identical artwork", i)
		}
	}
}

func TestNextKeepsQueueDepthConstant(t *testing.T) {
	s, _ := newTestSelector(t, 20, WithQueueSize(4))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := s.Next(ctx); err != nil {
			t.Fatal(err)
		}
		s.mu.Lock()
		depth := len(s.queue)
		s.mu.Unlock()
		if depth != 4 {
			t.Fatalf("after Next #%d queue depth = %d, want 4", i, depth)
		}
	}
}

func TestUnplayedItemsDrawnMoreOften(t *testing.T) {
	s, store := newTestSelector(t, 10)
	ctx := context.Background()

	// Item 1 has never played; items 2..10 each have 50 matches, so item 1
	// should carry weight 1.0 against 9 items at ~0.0196 each.
	for id := 2; id <= 10; id++ {
		setMatches(t, store, id, 50)
	}

	const draws = 5000
	fresh := 0
	for i := 0; i < draws; i++ {
		p, err := s.Draw(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if p.A.ID == 1 || p.B.ID == 1 {
			fresh++
		}
	}

	// Expected appearance probability for item 1 is well above 50%; a 40%
	// floor keeps the test far from statistical noise.
	if ratio := float64(fresh) / draws; ratio < 0.40 {
		t.Fatalf("unplayed item appeared in %.1f%% of draws, want > 40%%", ratio*100)
	}
}

func TestWeightsMatchInverseFrequency(t *testing.T) {
	s, store := newTestSelector(t, 3)
	ctx := context.Background()

	setMatches(t, store, 1, 0)
	setMatches(t, store, 2, 4)
	setMatches(t, store, 3, 9)

	w, err := s.Weights(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]float64{1: 1.0, 2: 0.2, 3: 0.1}
	for id, expect := range want {
		if got := w[id]; got < expect-1e-9 || got > expect+1e-9 {
			t.Errorf("weight[%d] = %f, want %f", id, got, expect)
		}
	}
}

func TestWeightTableCacheTTL(t *testing.T) {
	now := time.Now()
	clock := &now
	s, store := newTestSelector(t, 3,
		WithCacheTTL(5*time.Minute),
		WithClock(func() time.Time { return *clock }),
	)
	ctx := context.Background()

	w, err := s.Weights(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if w[1] != 1.0 {
		t.Fatalf("initial weight[1] = %f, want 1.0", w[1])
	}

	// A stats change inside the TTL window is not observed.
	setMatches(t, store, 1, 9)
	w, _ = s.Weights(ctx)
	if w[1] != 1.0 {
		t.Fatalf("weight[1] changed inside TTL: %f", w[1])
	}

	// Past the TTL the table is rebuilt.
	*clock = now.Add(6 * time.Minute)
	w, _ = s.Weights(ctx)
	if w[1] != 0.1 {
		t.Fatalf("weight[1] after TTL = %f, want 0.1", w[1])
	}
}
