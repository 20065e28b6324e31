// Command train loads shot data, trains one model per requested player and
// prints its holdout accuracy, chosen capacity and an example prediction.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	app "github.com/okian/swish/internal/app"
	"github.com/okian/swish/internal/config"
	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/pkg/logger"
)

var errSomeFailed = errors.New("training failed for one or more players")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// example is the shot scored with every trained model.
type example struct {
	x, y, distance float64
	shotType       int
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		data    = fs.String("data", cfg.DataPath, "Shot CSV/JSONL file or directory")
		players = fs.String("player", "", "Comma-separated players to train (default: every player)")
		ex      example
	)
	fs.Float64Var(&ex.x, "x", 0, "Example shot X coordinate")
	fs.Float64Var(&ex.y, "y", 5, "Example shot Y coordinate")
	fs.Float64Var(&ex.distance, "distance", 5, "Example shot distance in feet")
	fs.IntVar(&ex.shotType, "type", 2, "Example shot type (2 or 3)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *data == "" {
		return errors.New("no data path: pass -data or set SWISH_DATA_PATH")
	}

	if err := logger.InitWith(logger.Options{Format: cfg.LogFormat, Output: os.Stderr}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Get().Named("train")

	records, report, err := app.ReadShots(ctx, *data)
	if err != nil {
		return err
	}
	log.Info(ctx, "dataset loaded",
		logger.String("path", *data),
		logger.Int("kept", report.RowsKept),
		logger.Int("dropped", report.RowsDropped))

	trainer, store, err := app.NewTrainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	failed := 0
	for _, p := range selectPlayers(records, *players) {
		m, err := trainer.Train(ctx, records, p)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%s: error: %v\n", p, err)
			continue
		}
		prob, err := m.PredictProbability(ex.x, ex.y, ex.distance, ex.shotType)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%s: error: %v\n", p, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s: accuracy=%.4f capacity=%d samples=%d p(make)=%.4f\n",
			p, m.Accuracy, m.Capacity, m.Samples, prob)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", errSomeFailed, failed)
	}
	return nil
}

// selectPlayers returns the requested names, or every player in records
// sorted by name when list is empty.
func selectPlayers(records []shot.Record, list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		return out
	}
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.Player]; !ok {
			seen[r.Player] = struct{}{}
			out = append(out, r.Player)
		}
	}
	sort.Strings(out)
	return out
}
