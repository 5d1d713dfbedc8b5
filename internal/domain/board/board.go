// Package board reconstructs ranked read views from the aggregates the vote
// processor maintains.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/internal/domain/period"
	"github.com/goodvibesclub/vibeoff/internal/domain/votes"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

// statChunkSize bounds one pipelined stats read.
const statChunkSize = 250

// Entry is one leaderboard row: static item data merged with live stats.
type Entry struct {
	catalog.Item
	votes.Stats
}

// Detail is the full single-item view.
type Detail struct {
	catalog.Item
	AllTime votes.Stats          `json:"allTime"`
	Weekly  votes.Stats          `json:"weekly"`
	History []votes.HistoryEntry `json:"history"`
	Rank    int                  `json:"rank,omitempty"` // 1-based, 0 when unranked
}

// Reader builds leaderboard, rank, and item views.
type Reader struct {
	store repository.Store
	cat   *catalog.Catalog
	log   logger.Logger

	blacklist map[string]struct{}
}

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithBlacklist excludes wallet addresses from collector rollups.
func WithBlacklist(addresses []string) Option {
	return func(r *Reader) {
		for _, a := range addresses {
			r.blacklist[lower(a)] = struct{}{}
		}
	}
}

// NewReader creates a reader over the given catalog.
func NewReader(store repository.Store, cat *catalog.Catalog, log logger.Logger, opts ...Option) *Reader {
	r := &Reader{
		store:     store,
		cat:       cat,
		log:       log,
		blacklist: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Board returns every ranked item in display order: wins descending, then win
// rate descending, then id ascending. The id tail keeps repeated reads from
// reordering rows whose stats are equal.
func (r *Reader) Board(ctx context.Context, per period.Period) ([]Entry, error) {
	members, err := r.store.ZRevRange(ctx, per.LeaderboardKey(), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard set: %w", err)
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	stats, err := r.statsFor(ctx, per, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		item, ok := r.cat.Get(id)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Item: item, Stats: stats[id]})
	}
	sortEntries(entries)

	metrics.UpdateLeaderboardSize(len(entries))
	return entries, nil
}

// Rank returns an item's 1-based leaderboard position, or false when the item
// has never entered the set.
func (r *Reader) Rank(ctx context.Context, per period.Period, itemID int) (int, bool, error) {
	idx, found, err := r.store.ZRevRank(ctx, per.LeaderboardKey(), strconv.Itoa(itemID))
	if err != nil {
		return 0, false, fmt.Errorf("read rank: %w", err)
	}
	if !found {
		return 0, false, nil
	}
	return idx + 1, true, nil
}

// Item returns the merged static + stats + history + rank view.
func (r *Reader) Item(ctx context.Context, itemID int) (Detail, error) {
	item, ok := r.cat.Get(itemID)
	if !ok {
		return Detail{}, fmt.Errorf("%w: %d", votes.ErrUnknownItem, itemID)
	}

	p := r.store.Pipeline()
	p.HGetAll(period.AllTime.StatsKey(itemID))
	p.HGetAll(period.Weekly.StatsKey(itemID))
	p.LRange("history:"+strconv.Itoa(itemID), 0, -1)
	p.ZRevRank(period.AllTime.LeaderboardKey(), strconv.Itoa(itemID))
	results, err := p.Exec(ctx)
	if err != nil {
		return Detail{}, fmt.Errorf("read item %d: %w", itemID, err)
	}

	d := Detail{
		Item:    item,
		AllTime: votes.ParseStats(results[0].Hash),
		Weekly:  votes.ParseStats(results[1].Hash),
		History: make([]votes.HistoryEntry, 0, len(results[2].List)),
	}
	for _, row := range results[2].List {
		var e votes.HistoryEntry
		if err := json.Unmarshal([]byte(row), &e); err != nil {
			r.log.Warn(ctx, "corrupt history row", logger.Int("item", itemID), logger.Error(err))
			continue
		}
		d.History = append(d.History, e)
	}
	if results[3].Found {
		d.Rank = results[3].Rank + 1
	}
	return d, nil
}

// Stats returns the all-time stats for a set of ids in one round trip.
func (r *Reader) Stats(ctx context.Context, ids []int) (map[int]votes.Stats, error) {
	return r.statsFor(ctx, period.AllTime, ids)
}

func (r *Reader) statsFor(ctx context.Context, per period.Period, ids []int) (map[int]votes.Stats, error) {
	out := make(map[int]votes.Stats, len(ids))
	for lo := 0; lo < len(ids); lo += statChunkSize {
		hi := lo + statChunkSize
		if hi > len(ids) {
			hi = len(ids)
		}
		batch := ids[lo:hi]

		p := r.store.Pipeline()
		for _, id := range batch {
			p.HGetAll(per.StatsKey(id))
		}
		results, err := p.Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("stats batch [%d:%d]: %w", lo, hi, err)
		}
		for i, res := range results {
			out[batch[i]] = votes.ParseStats(res.Hash)
		}
	}
	return out, nil
}

// sortEntries applies the display ordering in place.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if ar, br := a.WinRate(), b.WinRate(); ar != br {
			return ar > br
		}
		return a.ID < b.ID
	})
}
