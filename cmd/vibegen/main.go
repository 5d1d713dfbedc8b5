package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/votegen"
)

// Default configuration constants.
const (
	defaultNumVotes   = 10000
	defaultNumItems   = 6969
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numVotes  = flag.Int("votes", defaultNumVotes, "Number of votes to generate and submit")
		numItems  = flag.Int("items", defaultNumItems, "Catalog size to draw item ids from")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		adminKey  = flag.String("admin-key", "", "Admin key for the pre-run store reset")
		skipReset = flag.Bool("skip-reset", false, "Leave existing data in place")
		logFile   = flag.String("log", "", "Log file for run output (default: vote_run_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		votegen.ShowHelp()
		return
	}

	// Setup logging
	if err := votegen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &votegen.Config{
		BaseURL:   *baseURL,
		NumVotes:  *numVotes,
		NumItems:  *numItems,
		Workers:   *workers,
		Timeout:   *timeout,
		LogFile:   *logFile,
		Verbose:   *verbose,
		AdminKey:  *adminKey,
		ResetURL:  "/admin/reset",
		SkipReset: *skipReset,
	}

	// Run the generator
	if err := votegen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		return
	}
}
