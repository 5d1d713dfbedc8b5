package votegen

import "time"

// Config holds configuration for the vote generator.
type Config struct {
	BaseURL   string        // Base URL of the service
	NumVotes  int           // Number of votes to generate
	NumItems  int           // Catalog size to draw ids from
	Workers   int           // Number of concurrent workers
	Timeout   time.Duration // HTTP request timeout
	LogFile   string        // Log file for run output
	Verbose   bool          // Enable verbose logging
	AdminKey  string        // Admin key; when set the store is reset first
	ResetURL  string        // Reset endpoint path
	SkipReset bool          // Leave existing data in place
}

// Vote is one generated winner/loser pair.
type Vote struct {
	WinnerID int `json:"winnerId"`
	LoserID  int `json:"loserId"`
}

// Entry mirrors the leaderboard read shape.
type Entry struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
	Matches int    `json:"matches"`
	Elo     int    `json:"elo"`
}

// voteResponse mirrors the POST /vote payload.
type voteResponse struct {
	Success bool `json:"success"`
}

// Stats holds run statistics.
type Stats struct {
	VotesGenerated     int
	VotesSubmitted     int
	VotesSuccessful    int
	VotesThrottled     int
	VotesFailed        int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
