package daily

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goodvibesclub/vibeoff/pkg/logger"
)

// Archive is one completed daily matchup.
type Archive struct {
	Char1ID   int    `json:"char1Id"`
	Char2ID   int    `json:"char2Id"`
	Votes1    int    `json:"votes1"`
	Votes2    int    `json:"votes2"`
	WinnerID  int    `json:"winnerId,omitempty"` // 0 on a tie
	DateKey   string `json:"dateKey"`
	StartTime int64  `json:"startTime"`
}

func winnerOf(a Archive) int {
	switch {
	case a.Votes1 > a.Votes2:
		return a.Char1ID
	case a.Votes2 > a.Votes1:
		return a.Char2ID
	default:
		return 0
	}
}

// archive moves a finished matchup into history, bumps the participants'
// daily appearance stats, and drops the matchup's voter sets.
func (d *Daily) archive(ctx context.Context, m Matchup) error {
	a := Archive{
		Char1ID:   m.Char1.ID,
		Char2ID:   m.Char2.ID,
		Votes1:    m.Votes1,
		Votes2:    m.Votes2,
		DateKey:   m.DateKey,
		StartTime: m.StartTime,
	}
	a.WinnerID = winnerOf(a)

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := d.store.ZAdd(ctx, historyKey, float64(a.StartTime), string(data)); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	for _, id := range []int{a.Char1ID, a.Char2ID} {
		if _, err := d.store.HIncrBy(ctx, charStatsKey(id), "appearances", 1); err != nil {
			d.log.Warn(ctx, "daily stats update failed", logger.Int("char", id), logger.Error(err))
		}
	}
	if a.WinnerID != 0 {
		if _, err := d.store.HIncrBy(ctx, charStatsKey(a.WinnerID), "wins", 1); err != nil {
			d.log.Warn(ctx, "daily stats update failed", logger.Int("char", a.WinnerID), logger.Error(err))
		}
	}

	// Voter sets are only meaningful for the live matchup.
	if err := d.store.Del(ctx, ipSetKey(m.DateKey), deviceSetKey(m.DateKey)); err != nil {
		d.log.Warn(ctx, "voter set cleanup failed", logger.Error(err))
	}
	return nil
}

// History returns past matchups, newest first, de-duplicated by date. The
// state machine should write one archive per game day, but a lost rotation
// race can leave two; the reader repairs rather than trusts.
func (d *Daily) History(ctx context.Context, limit int) ([]Archive, error) {
	rows, err := d.store.ZRevRange(ctx, historyKey, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	entries := make([]Archive, 0, len(rows))
	for _, row := range rows {
		var a Archive
		if err := json.Unmarshal([]byte(row), &a); err != nil {
			d.log.Warn(ctx, "corrupt history entry", logger.Error(err))
			continue
		}
		entries = append(entries, a)
	}

	merged := MergeByDate(entries)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// MergeByDate collapses entries sharing a date key: the same pair (in either
// orientation) sums votes oriented by the first entry's char1; different
// pairs on one date keep whichever entry drew more total votes. Input order
// (newest first) is preserved.
func MergeByDate(entries []Archive) []Archive {
	byDate := make(map[string]int) // dateKey -> index into out
	out := make([]Archive, 0, len(entries))

	for _, e := range entries {
		idx, seen := byDate[e.DateKey]
		if !seen {
			byDate[e.DateKey] = len(out)
			out = append(out, e)
			continue
		}

		kept := out[idx]
		switch {
		case kept.Char1ID == e.Char1ID && kept.Char2ID == e.Char2ID:
			kept.Votes1 += e.Votes1
			kept.Votes2 += e.Votes2
		case kept.Char1ID == e.Char2ID && kept.Char2ID == e.Char1ID:
			kept.Votes1 += e.Votes2
			kept.Votes2 += e.Votes1
		default:
			if e.Votes1+e.Votes2 > kept.Votes1+kept.Votes2 {
				kept = e
			}
		}
		kept.WinnerID = winnerOf(kept)
		out[idx] = kept
	}
	return out
}
