// Command consolidate merges every shot CSV under a data directory into a
// single file holding only the essential columns.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/okian/swish/internal/adapters/ingest"
	"github.com/okian/swish/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("consolidate", flag.ContinueOnError)
	fs.SetOutput(out)
	data := fs.String("data", "data", "Directory holding shot CSV files")
	dest := fs.String("out", "", "Output file (default: <data>/consolidated.csv)")
	level := fs.String("log-level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dest == "" {
		*dest = filepath.Join(*data, "consolidated.csv")
	}

	if err := logger.InitWith(logger.Options{Output: os.Stderr}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(*level); err != nil {
		return err
	}

	sum, err := ingest.NewLoader(*data, ingest.WithLogger(logger.Get().Named("consolidate"))).Consolidate(ctx, *dest)
	switch {
	case errors.Is(err, ingest.ErrAlreadyConsolidated):
		_, _ = fmt.Fprintf(out, "%s already exists, nothing to do\n", *dest)
		return nil
	case err != nil:
		return err
	}
	_, _ = fmt.Fprintf(out, "wrote %d rows from %d files to %s (%d skipped)\n", sum.Rows, sum.Files, *dest, sum.Skipped)
	return nil
}
