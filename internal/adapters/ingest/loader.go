// Package ingest reads shot exports from disk and consolidates per-game CSV
// files into one dataset.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/okian/swish/internal/domain/clean"
	"github.com/okian/swish/pkg/logger"
)

// Default loader configuration constants.
const (
	defaultProgressEvery = 100
)

// Shot file extensions the loader understands.
const (
	ExtCSV    = ".csv"
	ExtJSONL  = ".jsonl"
	ExtNDJSON = ".ndjson"
)

// Loader reads shot files from a data directory.
type Loader struct {
	dir           string
	logger        logger.Logger
	progressEvery int
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:           dir,
		logger:        logger.Get().Named("ingest"),
		progressEvery: defaultProgressEvery,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check verifies the data directory exists.
func (l *Loader) Check() error {
	info, err := os.Stat(l.dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDataDirMissing, l.dir)
	}
	return nil
}

// List returns the shot files directly inside the data directory, sorted by name.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	if err := l.Check(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isShotFile(e.Name()) {
			continue
		}
		l.logger.Info(ctx, "found shot file", logger.String("file", e.Name()), logger.String("dir", l.dir))
		files = append(files, filepath.Join(l.dir, e.Name()))
	}
	return files, nil
}

// ReadFile reads one CSV or JSON-lines shot file.
func (l *Loader) ReadFile(ctx context.Context, path string) (clean.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return clean.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	l.logger.Debug(ctx, "reading shot file", logger.String("file", path))
	var t clean.Table
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtCSV:
		t, err = ReadCSV(f)
	case ExtJSONL, ExtNDJSON:
		t, err = ReadJSONLines(f)
	default:
		return clean.Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return clean.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads path, which may be a single shot file or the data directory
// itself, and returns all rows projected onto the essential columns.
func (l *Loader) Load(ctx context.Context, path string) (clean.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return clean.Table{}, fmt.Errorf("%w: %s", ErrDataDirMissing, path)
	}
	if !info.IsDir() {
		t, err := l.ReadFile(ctx, path)
		if err != nil {
			return clean.Table{}, err
		}
		return Project(t)
	}

	files, err := NewLoader(path, WithLogger(l.logger)).List(ctx)
	if err != nil {
		return clean.Table{}, err
	}
	if len(files) == 0 {
		return clean.Table{}, fmt.Errorf("%w: %s", ErrNoShotFiles, path)
	}
	out := clean.Table{Columns: clean.EssentialColumns}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return clean.Table{}, err
		}
		t, err := l.ReadFile(ctx, file)
		if err != nil {
			return clean.Table{}, err
		}
		p, err := Project(t)
		if err != nil {
			return clean.Table{}, fmt.Errorf("%s: %w", file, err)
		}
		out.Rows = append(out.Rows, p.Rows...)
	}
	return out, nil
}

// Project reorders t onto the essential columns and drops the rest.
func Project(t clean.Table) (clean.Table, error) {
	pos := make([]int, len(clean.EssentialColumns))
	var missing []string
	for i, col := range clean.EssentialColumns {
		pos[i] = slices.IndexFunc(t.Columns, func(c string) bool { return clean.NormalizeText(c) == col })
		if pos[i] < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return clean.Table{}, fmt.Errorf("%w: %s", clean.ErrMissingColumns, strings.Join(missing, ", "))
	}

	out := clean.Table{Columns: clean.EssentialColumns, Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		projected := make([]string, len(pos))
		for i, p := range pos {
			if p < len(row) {
				projected[i] = row[p]
			}
		}
		out.Rows[r] = projected
	}
	return out, nil
}

// Summary describes a consolidation run.
type Summary struct {
	Files   int
	Skipped int
	Rows    int
}

// Consolidate walks the data directory for CSV files and writes their rows,
// projected onto the essential columns, into out. Unreadable files are
// skipped with a warning. If out already exists nothing is done and
// ErrAlreadyConsolidated is returned.
func (l *Loader) Consolidate(ctx context.Context, out string) (Summary, error) {
	var sum Summary
	if _, err := os.Stat(out); err == nil {
		return sum, fmt.Errorf("%w: %s", ErrAlreadyConsolidated, out)
	}
	if err := l.Check(); err != nil {
		return sum, err
	}

	outAbs, _ := filepath.Abs(out)
	var files []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.ToLower(filepath.Ext(path)) != ExtCSV {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == outAbs {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return sum, fmt.Errorf("walk %s: %w", l.dir, err)
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("%w: %s", ErrNoShotFiles, l.dir)
	}
	l.logger.Info(ctx, "consolidating shot files", logger.Int("files", len(files)), logger.String("out", out))

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return sum, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(out), ".consolidate-*.csv")
	if err != nil {
		return sum, fmt.Errorf("create temp output: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(clean.EssentialColumns); err != nil {
		_ = tmp.Close()
		return sum, fmt.Errorf("write header: %w", err)
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			_ = tmp.Close()
			return sum, err
		}
		if (i+1)%l.progressEvery == 0 {
			l.logger.Info(ctx, "consolidation progress", logger.Int("done", i+1), logger.Int("total", len(files)))
		}

		t, err := l.ReadFile(ctx, file)
		if err == nil {
			t, err = Project(t)
		}
		if err != nil {
			l.logger.Warn(ctx, "skipping unreadable shot file", logger.String("file", file), logger.Error(err))
			sum.Skipped++
			continue
		}
		if err := w.WriteAll(t.Rows); err != nil {
			_ = tmp.Close()
			return sum, fmt.Errorf("write rows from %s: %w", file, err)
		}
		sum.Files++
		sum.Rows += len(t.Rows)
	}

	w.Flush()
	if err := errors.Join(w.Error(), tmp.Close()); err != nil {
		return sum, fmt.Errorf("finish %s: %w", out, err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return sum, fmt.Errorf("rename to %s: %w", out, err)
	}
	l.logger.Info(ctx, "consolidation complete",
		logger.Int("files", sum.Files), logger.Int("skipped", sum.Skipped), logger.Int("rows", sum.Rows))
	return sum, nil
}

func isShotFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtCSV, ExtJSONL, ExtNDJSON:
		return true
	}
	return false
}
