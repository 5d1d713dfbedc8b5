package daily

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goodvibesclub/vibeoff/internal/adapters/repository"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

func ipSetKey(dateKey string) string      { return "daily:votes:" + dateKey }
func deviceSetKey(dateKey string) string  { return "daily:votes:device:" + dateKey }
func charStatsKey(charID int) string      { return "daily:stats:" + strconv.Itoa(charID) }
func voterKey(dateKey, voter string) string {
	return "daily:uservote:" + dateKey + ":" + voter
}
func discordKey(dateKey, userID string) string {
	return "daily:discord:" + dateKey + ":" + userID
}

// CanVote reports whether an (ip, device) voter is still eligible for the
// current matchup.
func (d *Daily) CanVote(ctx context.Context, ip, deviceID string) (bool, error) {
	m, err := d.Current(ctx)
	if err != nil {
		return false, err
	}
	return d.eligible(ctx, m.DateKey, ip, deviceID)
}

func (d *Daily) eligible(ctx context.Context, dateKey, ip, deviceID string) (bool, error) {
	if ip != "" {
		if voted, err := d.store.SIsMember(ctx, ipSetKey(dateKey), ip); err != nil {
			return false, err
		} else if voted {
			return false, nil
		}
	}
	if deviceID != "" {
		if voted, err := d.store.SIsMember(ctx, deviceSetKey(dateKey), deviceID); err != nil {
			return false, err
		} else if voted {
			return false, nil
		}
	}
	return true, nil
}

// Vote records one vote for itemID from an (ip, device) voter. The voter is
// marked before the tally moves, so a retry after a partial failure reads as
// already-voted rather than double-counting.
func (d *Daily) Vote(ctx context.Context, itemID int, ip, deviceID string) (Matchup, error) {
	m, err := d.Current(ctx)
	if err != nil {
		return Matchup{}, err
	}

	var field string
	switch itemID {
	case m.Char1.ID:
		field = "votes1"
	case m.Char2.ID:
		field = "votes2"
	default:
		return Matchup{}, fmt.Errorf("%w: %d is not in today's matchup", ErrUnknownItem, itemID)
	}

	ok, err := d.eligible(ctx, m.DateKey, ip, deviceID)
	if err != nil {
		return Matchup{}, err
	}
	if !ok {
		metrics.RecordDailyVoteRejected()
		return Matchup{}, ErrAlreadyVoted
	}

	if ip != "" {
		if err := d.store.SAdd(ctx, ipSetKey(m.DateKey), ip); err != nil {
			return Matchup{}, fmt.Errorf("mark ip: %w", err)
		}
	}
	if deviceID != "" {
		if err := d.store.SAdd(ctx, deviceSetKey(m.DateKey), deviceID); err != nil {
			return Matchup{}, fmt.Errorf("mark device: %w", err)
		}
	}
	if _, err := d.store.Set(ctx, voterKey(m.DateKey, ip+":"+deviceID),
		strconv.Itoa(itemID), repository.WithTTL(voteMarkerTTL)); err != nil {
		return Matchup{}, fmt.Errorf("mark voter: %w", err)
	}

	return d.tally(ctx, field)
}

// VoteDiscord records a vote arriving through the Discord bot, which carries
// a user id instead of an ip/cookie pair.
func (d *Daily) VoteDiscord(ctx context.Context, itemID int, discordUserID string) (Matchup, error) {
	if discordUserID == "" {
		return Matchup{}, ErrMissingVoter
	}
	m, err := d.Current(ctx)
	if err != nil {
		return Matchup{}, err
	}

	var field string
	switch itemID {
	case m.Char1.ID:
		field = "votes1"
	case m.Char2.ID:
		field = "votes2"
	default:
		return Matchup{}, fmt.Errorf("%w: %d is not in today's matchup", ErrUnknownItem, itemID)
	}

	set, err := d.store.Set(ctx, discordKey(m.DateKey, discordUserID),
		strconv.Itoa(itemID), repository.IfNotExists(), repository.WithTTL(voteMarkerTTL))
	if err != nil {
		return Matchup{}, fmt.Errorf("mark discord voter: %w", err)
	}
	if !set {
		metrics.RecordDailyVoteRejected()
		return Matchup{}, ErrAlreadyVoted
	}

	return d.tally(ctx, field)
}

func (d *Daily) tally(ctx context.Context, field string) (Matchup, error) {
	if _, err := d.store.HIncrBy(ctx, currentKey, field, 1); err != nil {
		return Matchup{}, fmt.Errorf("count vote: %w", err)
	}
	metrics.RecordDailyVote()

	m, _, err := d.read(ctx)
	if err != nil {
		return Matchup{}, err
	}
	return m, nil
}
