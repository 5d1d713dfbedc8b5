// Package selector picks weighted-random matchup pairs from the catalog.
//
// Weights are inverse to exposure: an item with fewer recorded matches is
// drawn more often, so coverage of a large catalog converges faster than
// uniform sampling would.
package selector

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

const (
	defaultQueueSize  = 12
	defaultCacheTTL   = 5 * time.Minute
	defaultWeight     = 1.0
	weightBatchSize   = 500
	maxRedrawAttempts = 5
)

// Pair is one matchup: two distinct catalog items.
type Pair struct {
	A catalog.Item
	B catalog.Item
}

// Selector draws weighted pairs and keeps a lookahead queue of precomputed
// ones so serving a matchup never waits on a weight-table rebuild.
type Selector struct {
	store repository.Store
	cat   *catalog.Catalog
	log   logger.Logger

	cacheTTL  time.Duration
	queueSize int
	now       func() time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	weights *weightTable
	queue   []Pair
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithQueueSize sets how many pairs are precomputed.
func WithQueueSize(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithCacheTTL sets how long a built weight table is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Selector) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithRand injects the random source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock injects the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a selector over the given catalog.
func New(store repository.Store, cat *catalog.Catalog, log logger.Logger, opts ...Option) (*Selector, error) {
	if cat == nil || cat.Size() < 2 {
		return nil, ErrCatalogTooSmall
	}
	s := &Selector{
		store:     store,
		cat:       cat,
		log:       log,
		cacheTTL:  defaultCacheTTL,
		queueSize: defaultQueueSize,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // matchup sampling, not security
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next returns the next matchup pair, replenishing the lookahead queue by one.
func (s *Selector) Next(ctx context.Context) (Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		if err := s.fillLocked(ctx); err != nil {
			return Pair{}, err
		}
	}

	p := s.queue[0]
	s.queue = s.queue[1:]

	// One-in-one-out keeps queue depth constant under steady consumption.
	next, err := s.drawLocked(ctx)
	if err == nil {
		s.queue = append(s.queue, next)
	} else {
		s.log.Warn(ctx, "pair replenish failed", logger.Error(err))
	}
	metrics.UpdatePairQueueSize(len(s.queue))
	metrics.RecordMatchupServed()
	return p, nil
}

// Draw returns a single weighted pair without touching the queue.
func (s *Selector) Draw(ctx context.Context) (Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawLocked(ctx)
}

// Weights returns the current per-item weight table, rebuilding it if stale.
// The map is keyed by item id.
func (s *Selector) Weights(ctx context.Context) (map[int]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tbl, err := s.tableLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(tbl.byID))
	for id, w := range tbl.byID {
		out[id] = w
	}
	return out, nil
}

func (s *Selector) fillLocked(ctx context.Context) error {
	for len(s.queue) < s.queueSize {
		p, err := s.drawLocked(ctx)
		if err != nil {
			if len(s.queue) > 0 {
				return nil
			}
			return err
		}
		s.queue = append(s.queue, p)
	}
	return nil
}

func (s *Selector) drawLocked(ctx context.Context) (Pair, error) {
	tbl, err := s.tableLocked(ctx)
	if err != nil {
		return Pair{}, err
	}

	items := s.cat.All()
	for attempt := 0; attempt < maxRedrawAttempts; attempt++ {
		firstIdx := s.pick(items, tbl, -1)
		secondIdx := s.pick(items, tbl, firstIdx)
		if firstIdx == secondIdx {
			continue
		}
		a, b := items[firstIdx], items[secondIdx]
		// Identical artwork makes a meaningless matchup even when the ids
		// differ.
		if a.URL == b.URL {
			continue
		}
		return Pair{A: a, B: b}, nil
	}
	return Pair{}, ErrNoDistinctPair
}

// pick runs a cumulative-weight walk over items, skipping the index `exclude`.
func (s *Selector) pick(items []catalog.Item, tbl *weightTable, exclude int) int {
	total := tbl.total
	if exclude >= 0 {
		total -= tbl.weightOf(items[exclude].ID)
	}
	if total <= 0 {
		// Degenerate table, fall back to uniform.
		for {
			i := s.rng.Intn(len(items))
			if i != exclude {
				return i
			}
		}
	}

	target := s.rng.Float64() * total
	var cum float64
	last := -1
	for i, it := range items {
		if i == exclude {
			continue
		}
		cum += tbl.weightOf(it.ID)
		last = i
		if cum > target {
			return i
		}
	}
	// Floating-point shortfall at the tail lands on the final candidate.
	return last
}
