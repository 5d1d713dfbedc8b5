package votes

import (
	"strconv"

	"github.com/goodvibesclub/vibeoff/internal/domain/elo"
)

// Stats is one item's aggregate record for a single period.
type Stats struct {
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	Matches   int `json:"matches"`
	Elo       int `json:"elo"`
	WinStreak int `json:"winStreak"`
}

// ParseStats decodes a stats hash. Absent fields zero out, except the rating
// which defaults to the base value.
func ParseStats(h map[string]string) Stats {
	s := Stats{
		Wins:      atoi(h["wins"]),
		Losses:    atoi(h["losses"]),
		Matches:   atoi(h["matches"]),
		WinStreak: atoi(h["winStreak"]),
		Elo:       elo.BaseRating,
	}
	if v, ok := h["elo"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.Elo = n
		}
	}
	return s
}

// WinRate returns wins/matches, with no matches counting as zero.
func (s Stats) WinRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Matches)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
