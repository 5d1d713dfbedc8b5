package votegen

import (
	"fmt"
	"log"
)

// verifyResults checks the leaderboard against the locally generated tallies.
// Inconsistencies are logged as warnings; the run still completes so the
// operator sees the full picture.
func verifyResults(config *Config, votes []Vote, leaderboard []Entry, stats *Stats) error {
	log.Println("verifying results...")

	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard after %d successful votes", stats.VotesSuccessful)
	}

	if err := verifyOrdering(leaderboard); err != nil {
		log.Printf("ordering warning: %v", err)
	} else {
		log.Println("leaderboard ordering verified")
	}

	if err := verifyAdditivity(leaderboard, stats); err != nil {
		log.Printf("additivity warning: %v", err)
	} else {
		log.Println("vote additivity verified")
	}

	if !config.SkipReset {
		if err := verifyTallies(expectedTallies(votes), leaderboard, stats); err != nil {
			log.Printf("tally warning: %v", err)
		} else {
			log.Println("per-item tallies verified")
		}
	}

	displayTopEntries(leaderboard, config.Verbose)
	log.Println("result verification completed")
	return nil
}

// verifyOrdering checks wins-descending with win-rate tiebreak.
func verifyOrdering(leaderboard []Entry) error {
	for i := 1; i < len(leaderboard); i++ {
		prev, cur := leaderboard[i-1], leaderboard[i]
		if cur.Wins > prev.Wins {
			return fmt.Errorf("entry %d (%d wins) outranks entry %d (%d wins)",
				i, cur.Wins, i-1, prev.Wins)
		}
		if cur.Wins == prev.Wins && winRate(cur) > winRate(prev) {
			return fmt.Errorf("entry %d breaks the win-rate tiebreak against entry %d", i, i-1)
		}
	}
	return nil
}

// verifyAdditivity checks that the board's total wins equals the number of
// accepted votes. Only meaningful on a freshly reset store.
func verifyAdditivity(leaderboard []Entry, stats *Stats) error {
	totalWins := 0
	for _, e := range leaderboard {
		totalWins += e.Wins
	}
	if totalWins != stats.VotesSuccessful {
		return fmt.Errorf("board carries %d wins but %d votes were accepted",
			totalWins, stats.VotesSuccessful)
	}
	return nil
}

// verifyTallies compares each board entry against the locally expected
// counts. Throttled votes make exact equality impossible, so the check is
// skipped for runs with any throttling.
func verifyTallies(expected map[int]Entry, leaderboard []Entry, stats *Stats) error {
	if stats.VotesThrottled > 0 || stats.VotesFailed > 0 {
		log.Printf("skipping per-item tally check (%d throttled, %d failed)",
			stats.VotesThrottled, stats.VotesFailed)
		return nil
	}
	for _, e := range leaderboard {
		want, ok := expected[e.ID]
		if !ok {
			return fmt.Errorf("item %d on the board was never voted on", e.ID)
		}
		if e.Wins != want.Wins {
			return fmt.Errorf("item %d has %d wins, expected %d", e.ID, e.Wins, want.Wins)
		}
	}
	return nil
}

func winRate(e Entry) float64 {
	if e.Matches == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.Matches)
}

// displayTopEntries shows the head of the board.
func displayTopEntries(leaderboard []Entry, verbose bool) {
	topN := 10
	if len(leaderboard) < topN {
		topN = len(leaderboard)
	}

	log.Printf("top %d items:", topN)
	for i := 0; i < topN; i++ {
		e := leaderboard[i]
		log.Printf("   %d. #%d %s - wins: %d, elo: %d", i+1, e.ID, e.Name, e.Wins, e.Elo)
	}

	if verbose && len(leaderboard) > 0 {
		totalWins, totalMatches := 0, 0
		for _, e := range leaderboard {
			totalWins += e.Wins
			totalMatches += e.Matches
		}
		log.Printf(`board statistics:
   Ranked items: %d
   Total wins: %d
   Total matches: %d
`, len(leaderboard), totalWins, totalMatches)
	}
}
