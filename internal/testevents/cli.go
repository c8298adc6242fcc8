package testevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/chimeralabs/accolade/pkg/logger"
)

const logFilePerm = 0600

// SetupLogging routes standard log output to stdout and a log file.
// When logFile is empty a timestamped filename is used.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if logFile == "" {
		logFile = fmt.Sprintf("test_log_%s.log", time.Now().Format("20060102_150405"))
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test events tool.
func ShowHelp() {
	os.Stdout.WriteString(`Accolade Event Test Tool
========================

A concurrent load tool for the Accolade achievement pipeline: submits game
events for a set of simulated players, then verifies progress, totals and
notifications through the query endpoints.

Usage:
  go run cmd/test-events/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8090")
  -players int
        Number of simulated players (default 100)
  -events int
        Events to generate per player (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        Wait between submission and verification (default 5s)
  -output string
        Output file for generated events (default: generated_events_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-events/main.go

  # Heavier load with custom parameters
  go run cmd/test-events/main.go -players 1000 -events 100 -workers 16

  # Test with verbose output
  go run cmd/test-events/main.go -verbose -players 50

  # Test with custom log file
  go run cmd/test-events/main.go -players 500 -log my_test.log
`)
}
