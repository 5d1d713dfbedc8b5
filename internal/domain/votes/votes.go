// Package votes implements the write path of the main game: applying one
// vote's full fan-out of aggregate updates.
//
// The fan-out is a batch of independent writes against the store, not a
// transaction. Additive fields go through the store's atomic increments;
// the rating and the win streak are read-then-written and can lose an update
// under concurrent votes on the same item. A write that fails after earlier
// writes succeeded is logged and reported but never rolled back.
package votes

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/internal/domain/catalog"
	"github.com/goodvibesclub/vibeoff/internal/domain/elo"
	"github.com/goodvibesclub/vibeoff/internal/domain/period"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

const (
	// historyCap bounds every per-item and global history list.
	historyCap = 50
	// volumeBucketSize is the width of one vote-volume bucket.
	volumeBucketSize = 10 * time.Minute
	// volumeBucketTTL keeps buckets around for a day.
	volumeBucketTTL = 24 * time.Hour

	globalVotesKey  = "global:votes"
	globalFeedKey   = "history:global"
	historyKeyBase  = "history:"
	volumeKeyPrefix = "stats:vol:"
)

// HistoryEntry is one row of an item's capped match log.
type HistoryEntry struct {
	OpponentID int    `json:"opponentId"`
	Result     string `json:"result"` // "W" or "L"
	Timestamp  int64  `json:"timestamp"`
}

// FeedItem is one side of a global feed entry.
type FeedItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FeedEntry is one row of the global activity feed.
type FeedEntry struct {
	Timestamp int64    `json:"timestamp"`
	Winner    FeedItem `json:"winner"`
	Loser     FeedItem `json:"loser"`
}

// Outcome reports the post-vote all-time stats for both items.
type Outcome struct {
	Winner Stats `json:"winner"`
	Loser  Stats `json:"loser"`
}

// Processor applies votes.
type Processor struct {
	store repository.Store
	cat   *catalog.Catalog
	log   logger.Logger
	now   func() time.Time
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithClock injects the time source used for timestamps and volume buckets.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProcessor creates a vote processor over the given catalog.
func NewProcessor(store repository.Store, cat *catalog.Catalog, log logger.Logger, opts ...Option) *Processor {
	p := &Processor{store: store, cat: cat, log: log, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process records one vote. Validation failures happen before any write; a
// write failure after that point is logged, the remaining writes still run,
// and the first failure is returned so the caller can surface a store error.
func (p *Processor) Process(ctx context.Context, winnerID, loserID int) (Outcome, error) {
	if winnerID == loserID {
		return Outcome{}, ErrSamePair
	}
	winner, ok := p.cat.Get(winnerID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %d", ErrUnknownItem, winnerID)
	}
	loser, ok := p.cat.Get(loserID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %d", ErrUnknownItem, loserID)
	}

	now := p.now()
	var firstErr error
	fail := func(op string, err error) {
		metrics.RecordStoreError()
		p.log.Error(ctx, "vote write failed",
			logger.String("op", op),
			logger.Int("winner", winnerID),
			logger.Int("loser", loserID),
			logger.Error(err),
		)
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", op, err)
		}
	}

	// Counters first: pure increments, safe under concurrency.
	for _, per := range period.All {
		if _, err := p.store.HIncrBy(ctx, per.StatsKey(winnerID), "wins", 1); err != nil {
			fail("incr wins", err)
		}
		if _, err := p.store.HIncrBy(ctx, per.StatsKey(winnerID), "matches", 1); err != nil {
			fail("incr winner matches", err)
		}
		if _, err := p.store.HIncrBy(ctx, per.StatsKey(loserID), "losses", 1); err != nil {
			fail("incr losses", err)
		}
		if _, err := p.store.HIncrBy(ctx, per.StatsKey(loserID), "matches", 1); err != nil {
			fail("incr loser matches", err)
		}
	}

	// Rating and streak are read-modify-write; a concurrent vote on the same
	// item can override this computation and that is accepted.
	p.updateRatings(ctx, winnerID, loserID, fail)
	p.updateStreaks(ctx, winnerID, loserID, fail)

	// Leaderboard scores mirror the wins hash field exactly.
	for _, per := range period.All {
		wins, _, err := p.store.HGet(ctx, per.StatsKey(winnerID), "wins")
		if err != nil {
			fail("read wins for board", err)
			continue
		}
		if err := p.store.ZAdd(ctx, per.LeaderboardKey(), float64(atoi(wins)), strconv.Itoa(winnerID)); err != nil {
			fail("board zadd", err)
		}
	}

	ts := now.UnixMilli()
	p.pushHistory(ctx, winnerID, HistoryEntry{OpponentID: loserID, Result: "W", Timestamp: ts}, fail)
	p.pushHistory(ctx, loserID, HistoryEntry{OpponentID: winnerID, Result: "L", Timestamp: ts}, fail)
	p.pushFeed(ctx, FeedEntry{
		Timestamp: ts,
		Winner:    FeedItem{ID: winner.ID, Name: winner.Name, URL: winner.URL},
		Loser:     FeedItem{ID: loser.ID, Name: loser.Name, URL: loser.URL},
	}, fail)

	if total, err := p.store.Incr(ctx, globalVotesKey); err != nil {
		fail("global counter", err)
	} else {
		metrics.UpdateGlobalVotes(total)
	}
	p.bumpVolume(ctx, now, fail)

	out := Outcome{
		Winner: p.readStats(ctx, winnerID),
		Loser:  p.readStats(ctx, loserID),
	}
	if firstErr != nil {
		metrics.RecordVoteError()
		return out, fmt.Errorf("%w: %v", repository.ErrUnavailable, firstErr)
	}
	metrics.RecordVoteProcessed()
	return out, nil
}

func (p *Processor) updateRatings(ctx context.Context, winnerID, loserID int, fail func(string, error)) {
	wHash, err := p.store.HGetAll(ctx, period.AllTime.StatsKey(winnerID))
	if err != nil {
		fail("read winner rating", err)
		return
	}
	lHash, err := p.store.HGetAll(ctx, period.AllTime.StatsKey(loserID))
	if err != nil {
		fail("read loser rating", err)
		return
	}
	newW, newL := elo.Next(ParseStats(wHash).Elo, ParseStats(lHash).Elo)

	for _, per := range period.All {
		if err := p.store.HSet(ctx, per.StatsKey(winnerID), map[string]string{"elo": strconv.Itoa(newW)}); err != nil {
			fail("write winner rating", err)
		}
		if err := p.store.HSet(ctx, per.StatsKey(loserID), map[string]string{"elo": strconv.Itoa(newL)}); err != nil {
			fail("write loser rating", err)
		}
	}
	metrics.RecordEloUpdate()
}

func (p *Processor) updateStreaks(ctx context.Context, winnerID, loserID int, fail func(string, error)) {
	cur, _, err := p.store.HGet(ctx, period.AllTime.StatsKey(winnerID), "winStreak")
	if err != nil {
		fail("read streak", err)
		return
	}
	next := strconv.Itoa(atoi(cur) + 1)
	for _, per := range period.All {
		if err := p.store.HSet(ctx, per.StatsKey(winnerID), map[string]string{"winStreak": next}); err != nil {
			fail("write winner streak", err)
		}
		if err := p.store.HSet(ctx, per.StatsKey(loserID), map[string]string{"winStreak": "0"}); err != nil {
			fail("write loser streak", err)
		}
	}
}

func (p *Processor) pushHistory(ctx context.Context, itemID int, e HistoryEntry, fail func(string, error)) {
	data, err := json.Marshal(e)
	if err != nil {
		fail("encode history", err)
		return
	}
	key := historyKeyBase + strconv.Itoa(itemID)
	if err := p.store.LPush(ctx, key, string(data)); err != nil {
		fail("push history", err)
		return
	}
	if err := p.store.LTrim(ctx, key, 0, historyCap-1); err != nil {
		fail("trim history", err)
	}
}

func (p *Processor) pushFeed(ctx context.Context, e FeedEntry, fail func(string, error)) {
	data, err := json.Marshal(e)
	if err != nil {
		fail("encode feed", err)
		return
	}
	if err := p.store.LPush(ctx, globalFeedKey, string(data)); err != nil {
		fail("push feed", err)
		return
	}
	if err := p.store.LTrim(ctx, globalFeedKey, 0, historyCap-1); err != nil {
		fail("trim feed", err)
	}
}

func (p *Processor) bumpVolume(ctx context.Context, now time.Time, fail func(string, error)) {
	bucket := now.Unix() / int64(volumeBucketSize/time.Second)
	key := volumeKeyPrefix + strconv.FormatInt(bucket, 10)
	if _, err := p.store.Incr(ctx, key); err != nil {
		fail("volume incr", err)
		return
	}
	if _, err := p.store.Expire(ctx, key, volumeBucketTTL); err != nil {
		fail("volume expire", err)
	}
}

func (p *Processor) readStats(ctx context.Context, itemID int) Stats {
	h, err := p.store.HGetAll(ctx, period.AllTime.StatsKey(itemID))
	if err != nil {
		return Stats{Elo: elo.BaseRating}
	}
	return ParseStats(h)
}
