package board

import (
	"context"
	"sort"
	"strings"

	"github.com/goodvibesclub/vibeoff/internal/domain/owners"
	"github.com/goodvibesclub/vibeoff/internal/domain/period"
)

// Collector is the aggregate of every item one owner holds.
type Collector struct {
	Address  string `json:"address"`
	Display  string `json:"display"`
	Link     string `json:"link,omitempty"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Matches  int    `json:"matches"`
	Items    int    `json:"items"`
	BestVibe Entry  `json:"bestVibe"`
}

// WinRate returns the collector's aggregate win rate.
func (c Collector) WinRate() float64 {
	if c.Matches == 0 {
		return 0
	}
	return float64(c.Wins) / float64(c.Matches)
}

// Collectors rolls the all-time board up by owner. Items whose owner is
// unknown are dropped; blacklisted wallets are excluded entirely. One person
// can surface under both a username and an address across records, so
// usernames reverse-resolve to addresses before grouping.
func (r *Reader) Collectors(ctx context.Context) ([]Collector, error) {
	entries, err := r.Board(ctx, period.AllTime)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	records, err := owners.Read(ctx, r.store, ids)
	if err != nil {
		return nil, err
	}

	byUsername := make(map[string]string)
	for _, rec := range records {
		if rec.Username != "" && rec.Address != "" {
			byUsername[lower(rec.Username)] = lower(rec.Address)
		}
	}

	grouped := make(map[string]*Collector)
	order := make([]string, 0)
	for _, e := range entries {
		rec, ok := records[e.ID]
		if !ok {
			continue
		}
		key := groupKey(rec, byUsername)
		if key == "" {
			continue
		}
		if _, banned := r.blacklist[key]; banned {
			continue
		}

		c, seen := grouped[key]
		if !seen {
			display := owners.ResolveDisplay(rec, key)
			c = &Collector{
				Address:  key,
				Display:  display.Name,
				Link:     display.Link,
				BestVibe: e,
			}
			grouped[key] = c
			order = append(order, key)
		}
		c.Wins += e.Wins
		c.Losses += e.Losses
		c.Matches += e.Matches
		c.Items++
		// entries is already display-sorted, so the first item with the top
		// win count is the stable best-vibe pick.
		if e.Wins > c.BestVibe.Wins {
			c.BestVibe = e
		}
	}

	out := make([]Collector, 0, len(order))
	for _, key := range order {
		out = append(out, *grouped[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if ar, br := a.WinRate(), b.WinRate(); ar != br {
			return ar > br
		}
		return a.BestVibe.ID < b.BestVibe.ID
	})
	return out, nil
}

// groupKey picks the bucket one item lands in: owner address when known,
// otherwise the address a previously seen record mapped this username to,
// otherwise the raw username.
func groupKey(rec owners.Record, byUsername map[string]string) string {
	if rec.Address != "" {
		return lower(rec.Address)
	}
	if rec.Username == "" {
		return ""
	}
	if addr, ok := byUsername[lower(rec.Username)]; ok {
		return addr
	}
	return lower(rec.Username)
}

func lower(s string) string {
	return strings.ToLower(s)
}
