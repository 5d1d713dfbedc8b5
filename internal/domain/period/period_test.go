package period

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		p         Period
		statsKey  string
		boardKey  string
	}{
		{Weekly, "stats:weekly:42", "leaderboard:weekly"},
		{AllTime, "stats:alltime:42", "leaderboard:alltime"},
	}
	for _, tt := range tests {
		if got := tt.p.StatsKey(42); got != tt.statsKey {
			t.Errorf("%v.StatsKey(42) = %q, want %q", tt.p, got, tt.statsKey)
		}
		if got := tt.p.LeaderboardKey(); got != tt.boardKey {
			t.Errorf("%v.LeaderboardKey() = %q, want %q", tt.p, got, tt.boardKey)
		}
	}
}

func TestAllCoversBothPeriods(t *testing.T) {
	if len(All) != 2 || All[0] != Weekly || All[1] != AllTime {
		t.Fatalf("All = %v, want [Weekly AllTime]", All)
	}
}
