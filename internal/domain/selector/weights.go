package selector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/domain/period"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

// weightTable is one built snapshot of per-item selection weights.
type weightTable struct {
	byID    map[int]float64
	total   float64
	builtAt time.Time
}

func (t *weightTable) weightOf(id int) float64 {
	if w, ok := t.byID[id]; ok {
		return w
	}
	return defaultWeight
}

// tableLocked returns the cached weight table, rebuilding when stale. Callers
// must hold s.mu. A rebuild failure with a previous table present degrades to
// the stale table rather than failing the draw.
func (s *Selector) tableLocked(ctx context.Context) (*weightTable, error) {
	if s.weights != nil && s.now().Sub(s.weights.builtAt) < s.cacheTTL {
		return s.weights, nil
	}

	tbl, err := s.buildTable(ctx)
	if err != nil {
		if s.weights != nil {
			s.log.Warn(ctx, "weight rebuild failed, using stale table", logger.Error(err))
			return s.weights, nil
		}
		return nil, err
	}
	s.weights = tbl
	return tbl, nil
}

// buildTable reads every item's match count and computes 1/(matches+1)
// weights, batching the reads through the store pipeline.
func (s *Selector) buildTable(ctx context.Context) (*weightTable, error) {
	start := s.now()
	items := s.cat.All()
	tbl := &weightTable{
		byID:    make(map[int]float64, len(items)),
		builtAt: start,
	}

	for lo := 0; lo < len(items); lo += weightBatchSize {
		hi := lo + weightBatchSize
		if hi > len(items) {
			hi = len(items)
		}
		batch := items[lo:hi]

		p := s.store.Pipeline()
		for _, it := range batch {
			p.HGet(period.AllTime.StatsKey(it.ID), "matches")
		}
		results, err := p.Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("weight batch [%d:%d]: %w", lo, hi, err)
		}
		for i, res := range results {
			matches := 0
			if res.Found {
				matches = atoiOrZero(res.Value)
			}
			w := 1.0 / float64(matches+1)
			tbl.byID[batch[i].ID] = w
			tbl.total += w
		}
	}

	metrics.RecordWeightRebuild()
	metrics.RecordWeightRebuildDuration(float64(s.now().Sub(start).Microseconds()) / 1000.0)
	s.log.Debug(ctx, "weight table rebuilt",
		logger.Int("items", len(tbl.byID)),
		logger.Float64("totalWeight", tbl.total),
	)
	return tbl, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
