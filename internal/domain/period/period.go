// Package period defines the aggregation windows stats are kept under.
package period

import "strconv"

// Period selects which aggregation window a stats read or write targets.
type Period uint8

const (
	// Weekly is the rolling weekly window.
	Weekly Period = iota
	// AllTime is the unbounded window.
	AllTime
)

// All lists every period, in write order.
var All = []Period{Weekly, AllTime}

// String returns the namespace token used in store keys.
func (p Period) String() string {
	if p == Weekly {
		return "weekly"
	}
	return "alltime"
}

// StatsKey returns the stats hash key for an item in this period.
func (p Period) StatsKey(itemID int) string {
	return "stats:" + p.String() + ":" + strconv.Itoa(itemID)
}

// LeaderboardKey returns the sorted-set key for this period's leaderboard.
func (p Period) LeaderboardKey() string {
	return "leaderboard:" + p.String()
}
