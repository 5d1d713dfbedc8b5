package votegen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/goodvibesclub/vibeoff/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "vote_run_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the vote generator.
func ShowHelp() {
	os.Stdout.WriteString(`Vibe Off! Vote Generator
========================

A concurrent tool for load-testing the voting API and verifying leaderboard
consistency afterwards.

Usage:
  go run cmd/vibegen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -votes int
        Number of votes to generate and submit (default 10000)
  -items int
        Catalog size to draw item ids from (default 6969)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -admin-key string
        Admin key; when set the store is wiped before the run so
        per-item tallies can be verified exactly
  -skip-reset
        Leave existing data in place (disables exact tally checks)
  -log string
        Log file for run output (default: vote_run_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/vibegen/main.go

  # Full verification against a fresh store
  go run cmd/vibegen/main.go -votes 50000 -workers 16 -admin-key secret

  # Additive run against live data
  go run cmd/vibegen/main.go -votes 1000 -skip-reset
`)
}
