package shotload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/okian/swish/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const directoryPermission = 0750

// Run uploads generated shots, trains every player, waits for the jobs and
// verifies the resulting leaderboard.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	log := logger.Get().Named("shotload")
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg)

	log.Info(ctx, "starting shot load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("shotsPerPlayer", cfg.ShotsPerPlayer),
		logger.Int("workers", cfg.Workers))

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	shots := Generate(cfg)
	stats.ShotsGenerated = len(shots)
	if cfg.OutputFile != "" {
		if err := SaveCSV(cfg.OutputFile, shots); err != nil {
			log.Warn(ctx, "failed to save shots", logger.Error(err))
		} else {
			log.Info(ctx, "shots saved", logger.String("file", cfg.OutputFile))
		}
	}

	if err := upload(ctx, cfg, client, shots, stats); err != nil {
		return stats, fmt.Errorf("shot upload failed: %w", err)
	}

	players := Players(shots)
	jobs, err := train(ctx, cfg, client, players, stats)
	if err != nil {
		return stats, fmt.Errorf("training requests failed: %w", err)
	}
	statuses, err := await(ctx, cfg, client, jobs)
	if err != nil {
		return stats, fmt.Errorf("waiting for jobs failed: %w", err)
	}
	trained := make([]string, 0, len(statuses))
	for _, st := range statuses {
		if st.State == "done" {
			stats.JobsDone++
			trained = append(trained, st.Player)
			continue
		}
		stats.JobsFailed++
		if cfg.Verbose {
			log.Warn(ctx, "training failed", logger.String("player", st.Player), logger.String("error", st.Error))
		}
	}

	ranks, err := ranks(ctx, cfg, client, trained)
	if err != nil {
		return stats, fmt.Errorf("rank retrieval failed: %w", err)
	}
	stats.RanksRetrieved = len(ranks)

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(board)

	if err := VerifyLeaderboard(board, ranks); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}
	displayTop(ctx, board)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Players < 1 {
		cfg.Players = DefaultPlayers
	}
	if cfg.ShotsPerPlayer < 1 {
		cfg.ShotsPerPlayer = DefaultShotsPerPlayer
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TopN < 1 {
		cfg.TopN = DefaultTopN
	}
}

// upload posts shots in batches. A rejected batch is counted, not fatal.
func upload(ctx context.Context, cfg *Config, client *Client, shots []Shot, stats *Stats) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for start := 0; start < len(shots); start += cfg.BatchSize {
		batch := shots[start:min(start+cfg.BatchSize, len(shots))]
		g.Go(func() error {
			ack, err := client.Upload(gctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				stats.BatchesFailed++
				return nil
			}
			stats.ShotsKept += ack.RowsKept
			stats.ShotsDropped += ack.RowsDropped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if stats.ShotsKept == 0 {
		return errors.New("no shots were accepted")
	}
	logger.Get().Info(ctx, "shots uploaded",
		logger.Int("kept", stats.ShotsKept),
		logger.Int("dropped", stats.ShotsDropped),
		logger.Int("failedBatches", stats.BatchesFailed))
	return nil
}

// train requests one job per player and returns the job IDs.
func train(ctx context.Context, cfg *Config, client *Client, players []string, stats *Stats) ([]string, error) {
	ids := make([]string, len(players))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, p := range players {
		g.Go(func() error {
			ack, err := client.Train(gctx, p)
			if err != nil {
				return err
			}
			ids[i] = ack.JobID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.JobsRequested = len(ids)
	return ids, nil
}

// await polls every job until it is terminal.
func await(ctx context.Context, cfg *Config, client *Client, ids []string) ([]JobStatus, error) {
	out := make([]JobStatus, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, id := range ids {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.PollInterval)
			defer ticker.Stop()
			for {
				st, err := client.Job(gctx, id)
				if err != nil {
					return err
				}
				if st.Terminal() {
					out[i] = st
					return nil
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ranks fetches GET /rank for every trained player.
func ranks(ctx context.Context, cfg *Config, client *Client, players []string) ([]Entry, error) {
	out := make([]Entry, len(players))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, p := range players {
		g.Go(func() error {
			e, err := client.Rank(gctx, p)
			if err != nil {
				return err
			}
			out[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveCSV writes shots with the essential column header so the file can be
// preloaded or consolidated by the server.
func SaveCSV(path string, shots []Shot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"player", "team", "shotX", "shotY", "distance", "shot_type", "made"})
	for _, s := range shots {
		_ = w.Write([]string{
			s.Player,
			s.Team,
			strconv.FormatFloat(s.ShotX, 'f', -1, 64),
			strconv.FormatFloat(s.ShotY, 'f', -1, 64),
			strconv.FormatFloat(s.Distance, 'f', -1, 64),
			strconv.Itoa(s.ShotType),
			strconv.FormatBool(s.Made),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return f.Close()
}

func displayTop(ctx context.Context, board []Entry) {
	log := logger.Get().Named("shotload")
	for _, e := range board {
		log.Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("player", e.Player),
			logger.Float64("accuracy", e.Accuracy),
			logger.Int("capacity", e.Capacity))
	}
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var shotsPerSecond float64
	if stats.Duration > 0 {
		shotsPerSecond = float64(stats.ShotsGenerated) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("shotsGenerated", stats.ShotsGenerated),
		logger.Int("shotsKept", stats.ShotsKept),
		logger.Int("shotsDropped", stats.ShotsDropped),
		logger.Int("jobsRequested", stats.JobsRequested),
		logger.Int("jobsDone", stats.JobsDone),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("shotsPerSecond", shotsPerSecond))
}
