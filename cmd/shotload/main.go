package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/swish/internal/shotload"
)

const defaultRunTimeout = 30 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players = flag.Int("players", shotload.DefaultPlayers, "Number of synthetic players")
		shots   = flag.Int("shots", shotload.DefaultShotsPerPlayer, "Shots per player")
		batch   = flag.Int("batch", shotload.DefaultBatchSize, "Shots per upload request")
		workers = flag.Int("workers", runtime.NumCPU(), "Concurrent requests")
		topN    = flag.Int("top", shotload.DefaultTopN, "Leaderboard rows to fetch")
		timeout = flag.Duration("timeout", shotload.DefaultTimeout, "HTTP request timeout")
		poll    = flag.Duration("poll", shotload.DefaultPollInterval, "Job polling interval")
		seed    = flag.Int64("seed", 1, "Generator seed")
		output  = flag.String("output", "", "CSV file for generated shots")
		logFile = flag.String("log", "", "Also write logs to this file")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		shotload.ShowHelp()
		return
	}
	if err := shotload.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &shotload.Config{
		BaseURL:        *baseURL,
		Players:        *players,
		ShotsPerPlayer: *shots,
		BatchSize:      *batch,
		Workers:        *workers,
		Timeout:        *timeout,
		PollInterval:   *poll,
		TopN:           *topN,
		OutputFile:     *output,
		Seed:           *seed,
		Verbose:        *verbose,
	}
	if _, err := shotload.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		cancel()
		stop()
		os.Exit(1)
	}
}
