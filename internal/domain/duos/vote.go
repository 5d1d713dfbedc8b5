package duos

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goodvibesclub/vibeoff/internal/domain/elo"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

// Quota reports a device's standing against the daily vote limit.
type Quota struct {
	Limit     int `json:"limit"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Outcome is the post-vote state of both duos.
type Outcome struct {
	Winner Duo   `json:"winner"`
	Loser  Duo   `json:"loser"`
	Quota  Quota `json:"quota"`
}

func (e *Engine) quotaKey(deviceID string) string {
	return votesPrefix + e.now().In(quotaZone).Format("2006-01-02") + ":" + deviceID
}

// RemainingVotes returns a device's quota standing without spending a vote.
func (e *Engine) RemainingVotes(ctx context.Context, deviceID string) (Quota, error) {
	used := 0
	if v, found, err := e.store.Get(ctx, e.quotaKey(deviceID)); err != nil {
		return Quota{}, fmt.Errorf("read quota: %w", err)
	} else if found {
		used, _ = strconv.Atoi(v)
	}
	remaining := e.dailyQuota - used
	if remaining < 0 {
		remaining = 0
	}
	return Quota{Limit: e.dailyQuota, Used: used, Remaining: remaining}, nil
}

// Vote records one duo-vs-duo result, spending one unit of the device's
// daily quota. The aggregate updates follow the main game's policy: counters
// are atomic increments, ratings are read-modify-write with no rollback.
func (e *Engine) Vote(ctx context.Context, winnerID, loserID, deviceID string) (Outcome, error) {
	if deviceID == "" {
		return Outcome{}, ErrMissingDevice
	}
	if winnerID == loserID {
		return Outcome{}, ErrSamePair
	}

	key := e.quotaKey(deviceID)
	n, err := e.store.Incr(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("spend quota: %w", err)
	}
	if n == 1 {
		if _, err := e.store.Expire(ctx, key, quotaTTL); err != nil {
			e.log.Warn(ctx, "quota expire failed", logger.Error(err))
		}
	}
	if int(n) > e.dailyQuota {
		return Outcome{}, ErrQuotaExceeded
	}

	winner, foundW, err := e.Get(ctx, winnerID)
	if err != nil {
		return Outcome{}, err
	}
	loser, foundL, err := e.Get(ctx, loserID)
	if err != nil {
		return Outcome{}, err
	}
	if !foundW || !foundL {
		return Outcome{}, ErrNotFound
	}

	newW, newL := elo.Next(winner.Elo, loser.Elo)
	updates := []struct {
		id    string
		field string
	}{
		{winner.ID, "wins"},
		{winner.ID, "matches"},
		{loser.ID, "losses"},
		{loser.ID, "matches"},
	}
	for _, u := range updates {
		if _, err := e.store.HIncrBy(ctx, keyPrefix+u.id, u.field, 1); err != nil {
			return Outcome{}, fmt.Errorf("count duo vote: %w", err)
		}
	}
	if err := e.store.HSet(ctx, keyPrefix+winner.ID, map[string]string{"elo": strconv.Itoa(newW)}); err != nil {
		e.log.Error(ctx, "duo rating write failed", logger.String("duo", winner.ID), logger.Error(err))
	}
	if err := e.store.HSet(ctx, keyPrefix+loser.ID, map[string]string{"elo": strconv.Itoa(newL)}); err != nil {
		e.log.Error(ctx, "duo rating write failed", logger.String("duo", loser.ID), logger.Error(err))
	}

	metrics.RecordDuoVote()

	w, _, err := e.Get(ctx, winner.ID)
	if err != nil {
		return Outcome{}, err
	}
	l, _, err := e.Get(ctx, loser.ID)
	if err != nil {
		return Outcome{}, err
	}
	remaining := e.dailyQuota - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Outcome{
		Winner: w,
		Loser:  l,
		Quota:  Quota{Limit: e.dailyQuota, Used: int(n), Remaining: remaining},
	}, nil
}
