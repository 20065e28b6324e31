package shotload

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/swish/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initialises the global logger on stdout, teeing to logFile
// when it is set.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.InitWith(logger.Options{Output: out}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`swish shot load tool

Generates synthetic players and shots, uploads them to a running server,
trains every player and checks the leaderboard it produces.

Usage:
  go run ./cmd/shotload [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -players int        Number of synthetic players (default 20)
  -shots int          Shots per player (default 400)
  -batch int          Shots per upload request (default 500)
  -workers int        Concurrent requests (default CPU cores)
  -top int            Leaderboard rows to fetch (default 10)
  -timeout duration   HTTP request timeout (default 30s)
  -poll duration      Job polling interval (default 250ms)
  -seed int           Generator seed (default 1)
  -output string      Write the generated shots to this CSV file
  -log string         Also write logs to this file
  -verbose            Enable debug logging
  -help               Show this help message

Examples:
  go run ./cmd/shotload -players 50 -shots 1000
  go run ./cmd/shotload -output data/synthetic.csv -url http://localhost:8080
`)
}
