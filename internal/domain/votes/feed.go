package votes

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// pulseWindow is how far back vote velocity looks.
const pulseWindow = 4 * time.Hour

// Pulse is the activity snapshot behind the vibe-o-meter.
type Pulse struct {
	TotalVotes  int64       `json:"totalVotes"`
	RecentVotes int         `json:"recentVotes"` // votes inside the pulse window
	PerBucket   []int       `json:"perBucket"`   // oldest bucket first
	Recent      []FeedEntry `json:"recent"`
}

// Feed returns the global activity feed, newest first. When filterIDs is
// non-empty only entries involving one of those items are returned.
func (p *Processor) Feed(ctx context.Context, filterIDs []int, limit int) ([]FeedEntry, error) {
	rows, err := p.store.LRange(ctx, globalFeedKey, 0, historyCap-1)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	var filter map[int]struct{}
	if len(filterIDs) > 0 {
		filter = make(map[int]struct{}, len(filterIDs))
		for _, id := range filterIDs {
			filter[id] = struct{}{}
		}
	}

	out := make([]FeedEntry, 0, len(rows))
	for _, row := range rows {
		var e FeedEntry
		if err := json.Unmarshal([]byte(row), &e); err != nil {
			continue
		}
		if filter != nil {
			_, w := filter[e.Winner.ID]
			_, l := filter[e.Loser.ID]
			if !w && !l {
				continue
			}
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ReadPulse assembles the total counter, the rolling per-bucket volume, and a
// short slice of the feed into one snapshot.
func (p *Processor) ReadPulse(ctx context.Context) (Pulse, error) {
	bucketCount := int(pulseWindow / volumeBucketSize)
	now := p.now().Unix() / int64(volumeBucketSize/time.Second)

	keys := make([]string, bucketCount)
	for i := 0; i < bucketCount; i++ {
		// keys[0] is the oldest bucket in the window.
		keys[i] = volumeKeyPrefix + strconv.FormatInt(now-int64(bucketCount-1-i), 10)
	}
	values, err := p.store.MGet(ctx, keys...)
	if err != nil {
		return Pulse{}, fmt.Errorf("read volume: %w", err)
	}

	pulse := Pulse{PerBucket: make([]int, bucketCount)}
	for i, v := range values {
		n := atoi(v)
		pulse.PerBucket[i] = n
		pulse.RecentVotes += n
	}

	if total, found, err := p.store.Get(ctx, globalVotesKey); err != nil {
		return Pulse{}, fmt.Errorf("read counter: %w", err)
	} else if found {
		pulse.TotalVotes, _ = strconv.ParseInt(total, 10, 64)
	}

	recent, err := p.Feed(ctx, nil, 10)
	if err != nil {
		return Pulse{}, err
	}
	pulse.Recent = recent
	return pulse, nil
}
