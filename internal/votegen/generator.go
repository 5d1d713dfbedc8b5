package votegen

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/goodvibesclub/vibeoff/pkg/logger"
)

// Vote distribution cases. A handful of "fan favorite" items receive a
// disproportionate share of wins so the board develops a visible head.
const (
	favoriteShareDivisor = 5 // one in five votes goes to a favorite
	favoriteCount        = 10
)

// randomInt returns a uniform random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateVotes creates the requested number of winner/loser pairs.
func generateVotes(ctx context.Context, config *Config, stats *Stats) ([]Vote, error) {
	logger.Get().Info(ctx, "generating votes",
		logger.Int("numVotes", config.NumVotes),
		logger.Int("numItems", config.NumItems))

	favorites := make([]int, favoriteCount)
	for i := range favorites {
		favorites[i] = 1 + randomInt(config.NumItems)
	}

	votes := make([]Vote, config.NumVotes)
	for i := range votes {
		votes[i] = generateSingleVote(config.NumItems, favorites)
	}

	stats.VotesGenerated = len(votes)
	logger.Get().Info(ctx, "generated votes successfully", logger.Int("count", len(votes)))
	return votes, nil
}

// generateSingleVote draws a pair, occasionally forcing a favorite to win.
func generateSingleVote(numItems int, favorites []int) Vote {
	winner := 1 + randomInt(numItems)
	if randomInt(favoriteShareDivisor) == 0 {
		winner = favorites[randomInt(len(favorites))]
	}
	loser := 1 + randomInt(numItems)
	for loser == winner {
		loser = 1 + randomInt(numItems)
	}
	return Vote{WinnerID: winner, LoserID: loser}
}

// expectedTallies folds the generated votes into per-item win/loss counts.
func expectedTallies(votes []Vote) map[int]Entry {
	tallies := make(map[int]Entry)
	for _, v := range votes {
		w := tallies[v.WinnerID]
		w.ID = v.WinnerID
		w.Wins++
		w.Matches++
		tallies[v.WinnerID] = w

		l := tallies[v.LoserID]
		l.ID = v.LoserID
		l.Losses++
		l.Matches++
		tallies[v.LoserID] = l
	}
	return tallies
}
