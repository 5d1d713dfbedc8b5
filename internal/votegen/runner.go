package votegen

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/goodvibesclub/vibeoff/pkg/logger"
)

// Run executes the complete vote generation run.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting vibeoff vote run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("votes", config.NumVotes),
		logger.Int("items", config.NumItems),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Reset the store so verification sees only this run
	if !config.SkipReset {
		if config.AdminKey == "" {
			log.Println("no admin key; skipping reset, per-item tally checks disabled")
			config.SkipReset = true
		} else if err := resetStore(ctx, config); err != nil {
			return fmt.Errorf("store reset failed: %w", err)
		}
	}

	// Step 3: Generate votes
	votes, err := generateVotes(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("vote generation failed: %w", err)
	}

	// Step 4: Submit votes concurrently
	if err := submitVotes(ctx, config, votes, stats); err != nil {
		return fmt.Errorf("vote submission failed: %w", err)
	}

	// Step 5: Let the service settle
	logger.Get().Info(ctx, "waiting for votes to settle")
	time.Sleep(SettleDelay)

	// Step 6: Get leaderboard
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, votes, leaderboard, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)
	return nil
}

// displayFinalStats prints the run summary.
func displayFinalStats(stats *Stats) {
	successRate := 0.0
	if stats.VotesSubmitted > 0 {
		successRate = float64(stats.VotesSuccessful) / float64(stats.VotesSubmitted) * PercentageMultiplier
	}
	votesPerSec := 0.0
	if stats.Duration > 0 {
		votesPerSec = float64(stats.VotesSubmitted) / stats.Duration.Seconds()
	}

	log.Printf(`run complete:
   Generated: %d
   Submitted: %d
   Successful: %d (%.1f%%)
   Throttled: %d
   Failed: %d
   Board entries: %d
   Duration: %s (%.0f votes/sec)
`,
		stats.VotesGenerated,
		stats.VotesSubmitted,
		stats.VotesSuccessful, successRate,
		stats.VotesThrottled,
		stats.VotesFailed,
		stats.LeaderboardEntries,
		stats.Duration.Round(time.Millisecond),
		votesPerSec,
	)
}
