// Package convert ingests daily archive files into the surface store,
// one committed partition per trading date. Conversion is incremental
// and restart-safe: already-ingested dates are skipped, failed dates
// leave nothing behind.
package convert

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/karnek/ivhist/internal/archive"
	"github.com/karnek/ivhist/internal/config"
	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/logging"
	"github.com/karnek/ivhist/internal/store"
	"github.com/karnek/ivhist/internal/surface"
)

const duplicatePolicyFirst = "first"

// Converter drives archive ingestion against one surface store.
type Converter struct {
	cfg   *config.Config
	store *store.Store[store.SurfaceRow]
	log   *slog.Logger
}

// Summary reports one conversion run.
type Summary struct {
	mu sync.Mutex

	Processed  int
	Skipped    int
	Failed     map[surface.Date]error
	Rows       int64
	BadRows    int64
	Duplicates int64
}

func (s *Summary) fail(date surface.Date, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failed == nil {
		s.Failed = make(map[surface.Date]error)
	}
	s.Failed[date] = err
}

func (s *Summary) done(rows, bad, dups int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	s.Rows += rows
	s.BadRows += bad
	s.Duplicates += dups
}

// New builds a converter over the surface store.
func New(cfg *config.Config, st *store.Store[store.SurfaceRow]) *Converter {
	return &Converter{cfg: cfg, store: st, log: logging.Component("convert")}
}

// Run converts every archive in the configured directory whose date is
// not yet in the store. With force set, existing partitions are rebuilt
// and replaced. Each date fails or commits independently; fatal store
// errors abort the run.
func (c *Converter) Run(ctx context.Context, force bool) (*Summary, error) {
	archives, err := c.discover()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var pending []string
	for _, path := range archives {
		date, err := surface.DateFromName(path)
		if err != nil {
			c.log.Warn("archive name carries no date, skipping", "path", path)
			continue
		}
		if !force && c.store.Index().Contains(date) {
			summary.Skipped++
			continue
		}
		pending = append(pending, path)
	}
	c.log.Info("conversion starting",
		"archives", len(archives),
		"pending", len(pending),
		"skipped", summary.Skipped,
		"force", force)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Convert.Workers)
	for _, path := range pending {
		g.Go(func() error {
			date, rows, bad, dups, err := c.convertArchive(ctx, path, force)
			if err != nil {
				if apperrors.IsFatal(err) || ctx.Err() != nil {
					return err
				}
				c.log.Error("archive failed", "path", path, "error", err)
				summary.fail(date, err)
				return nil
			}
			summary.done(rows, bad, dups)
			c.log.Info("archive converted", "date", date, "rows", rows, "bad_rows", bad)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// discover lists the zip archives to consider, sorted by name so dates
// are processed oldest first.
func (c *Converter) discover() ([]string, error) {
	dir := c.cfg.Archives.Dir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "archive directory %s does not exist", dir)
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// convertArchive streams one archive into a staged partition and
// commits it. Any failure aborts the writer, leaving no partition file
// and no index entry for the date.
func (c *Converter) convertArchive(ctx context.Context, path string, force bool) (date surface.Date, rows, bad, dups int64, err error) {
	reader, err := archive.Open(path, c.cfg.Convert.BatchSize)
	if err != nil {
		d, _ := surface.DateFromName(path)
		return d, 0, 0, 0, err
	}
	defer reader.Close()
	date = reader.Date()

	writer, err := c.store.Begin(date, force)
	if err != nil {
		return date, 0, 0, 0, err
	}
	defer writer.Abort()

	keepFirst := c.cfg.Convert.DuplicatePolicy == duplicatePolicyFirst
	seen := make(map[string]struct{})

	for {
		batch, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return date, 0, 0, 0, err
		}

		out := make([]store.SurfaceRow, 0, len(batch))
		for i := range batch {
			rec := &batch[i]
			key := rec.Key()
			if _, dup := seen[key]; dup {
				if !keepFirst {
					return date, 0, 0, 0, apperrors.Wrapf(apperrors.ErrDuplicateRow, "%s in %s", key, filepath.Base(path))
				}
				dups++
				continue
			}
			seen[key] = struct{}{}
			out = append(out, store.RecordToRow(rec))
		}
		if err := writer.Append(out); err != nil {
			return date, 0, 0, 0, err
		}
	}

	if _, err := writer.Commit(); err != nil {
		return date, 0, 0, 0, err
	}
	return date, writer.RowCount(), int64(reader.BadRows()), dups, nil
}
