// Package store implements the partitioned columnar store: one Parquet
// file per trading date, tracked by a durable partition index. A
// partition is either absent or fully committed; writers stage to a
// temporary file and publish with an atomic rename, and only then does
// the index learn about the partition.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/parquet-go/parquet-go"

	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/surface"
)

// PartitionExt is the file extension of committed partition files.
const PartitionExt = ".parquet"

// Store is a date-partitioned Parquet store for rows of type T. The row
// struct fixes the schema: the first-ever commit pins its fingerprint in
// the index and every later commit must match.
type Store[T any] struct {
	dir   string
	opts  Options
	index *Index

	schema      *parquet.Schema
	fingerprint string

	mu       sync.Mutex
	inflight map[surface.Date]bool
}

// Open opens (or initializes) a store rooted at dir.
func Open[T any](dir string, opts Options) (*Store[T], error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	index, err := OpenIndex(dir)
	if err != nil {
		return nil, err
	}

	var zero T
	schema := parquet.SchemaOf(&zero)
	fingerprint := schemaFingerprint(schema)

	if got := index.Schema(); got != "" && got != fingerprint {
		return nil, fmt.Errorf("store %s established schema %s, row type has %s: %w",
			dir, got, fingerprint, apperrors.ErrSchemaMismatch)
	}

	return &Store[T]{
		dir:         dir,
		opts:        opts,
		index:       index,
		schema:      schema,
		fingerprint: fingerprint,
		inflight:    make(map[surface.Date]bool),
	}, nil
}

// schemaFingerprint derives a stable fingerprint from the Parquet schema.
func schemaFingerprint(schema *parquet.Schema) string {
	sum := sha256.Sum256([]byte(schema.String()))
	return hex.EncodeToString(sum[:8])
}

// Dir returns the store root directory.
func (s *Store[T]) Dir() string {
	return s.dir
}

// Index returns the store's partition index.
func (s *Store[T]) Index() *Index {
	return s.index
}

// PartitionPath returns the committed partition file path for date.
func (s *Store[T]) PartitionPath(date surface.Date) string {
	return filepath.Join(s.dir, date.String()+PartitionExt)
}

// acquire takes the per-date write lock. Concurrent publishes to
// different dates are fine; two writers on the same date are not.
func (s *Store[T]) acquire(date surface.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[date] {
		return fmt.Errorf("%s: %w", date, apperrors.ErrPartitionBusy)
	}
	s.inflight[date] = true
	return nil
}

func (s *Store[T]) release(date surface.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, date)
}

// Begin starts a staged write for one date partition. Appends stream to
// a temporary file; nothing is visible until Commit. With replace false
// an already committed date fails with ErrPartitionExists.
func (s *Store[T]) Begin(date surface.Date, replace bool) (*PartitionWriter[T], error) {
	if err := s.acquire(date); err != nil {
		return nil, err
	}

	if !replace && s.index.Contains(date) {
		s.release(date)
		return nil, fmt.Errorf("%s: %w", date, apperrors.ErrPartitionExists)
	}

	tmp := s.PartitionPath(date) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		s.release(date)
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](f, s.opts.writerOptions()...)

	return &PartitionWriter[T]{
		store:   s,
		date:    date,
		replace: replace,
		tmpPath: tmp,
		file:    f,
		writer:  writer,
	}, nil
}

// WritePartition stages and commits a whole partition in one call.
func (s *Store[T]) WritePartition(date surface.Date, rows []T) (PartitionInfo, error) {
	return s.writeAll(date, rows, false)
}

// ReplacePartition rewrites an existing partition for a re-run. The old
// file is removed atomically with the publish; stale chunks never
// survive.
func (s *Store[T]) ReplacePartition(date surface.Date, rows []T) (PartitionInfo, error) {
	return s.writeAll(date, rows, true)
}

func (s *Store[T]) writeAll(date surface.Date, rows []T, replace bool) (PartitionInfo, error) {
	w, err := s.Begin(date, replace)
	if err != nil {
		return PartitionInfo{}, err
	}
	if err := w.Append(rows); err != nil {
		w.Abort()
		return PartitionInfo{}, err
	}
	return w.Commit()
}

// ReadPartition loads all rows of a committed partition. The index is
// authoritative: a date the index does not know fails with
// ErrPartitionNotFound even if a file exists, and a missing file behind
// an index entry is ErrStoreInconsistency.
func (s *Store[T]) ReadPartition(date surface.Date) ([]T, error) {
	info, ok := s.index.Get(date)
	if !ok {
		return nil, fmt.Errorf("%s: %w", date, apperrors.ErrPartitionNotFound)
	}

	f, err := os.Open(s.PartitionPath(date))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("index has %s but partition file is missing: %w",
			date, apperrors.ErrStoreInconsistency)
	}
	if err != nil {
		return nil, fmt.Errorf("open partition: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	if n := reader.NumRows(); n != info.Rows {
		return nil, fmt.Errorf("index has %d rows for %s, file has %d: %w",
			info.Rows, date, n, apperrors.ErrStoreInconsistency)
	}

	rows := make([]T, info.Rows)
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read partition %s: %w", date, err)
		}
	}
	if int64(read) != info.Rows {
		return nil, fmt.Errorf("index has %d rows for %s, file has %d: %w",
			info.Rows, date, read, apperrors.ErrStoreInconsistency)
	}

	return rows[:read], nil
}

// ConsistencyReport describes index/store disagreements.
type ConsistencyReport struct {
	// Missing are dates the index claims but whose file is absent or
	// fails its checksum.
	Missing []surface.Date

	// Orphans are committed-looking partition files the index does not
	// know about.
	Orphans []string

	// StaleTemps are leftover staging files from aborted writes. They
	// are never visible as partitions but should be cleaned up.
	StaleTemps []string
}

// Clean reports whether the store and index agree.
func (r *ConsistencyReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Orphans) == 0
}

// VerifyConsistency cross-checks the index against the files on disk.
// With full set, partition checksums are recomputed. Disagreement is
// surfaced as ErrStoreInconsistency, never silently repaired: repair
// requires an explicit re-run.
func (s *Store[T]) VerifyConsistency(full bool) (*ConsistencyReport, error) {
	report := &ConsistencyReport{}

	for _, date := range s.index.Dates() {
		info, _ := s.index.Get(date)
		path := s.PartitionPath(date)

		st, err := os.Stat(path)
		if err != nil || st.Size() == 0 {
			report.Missing = append(report.Missing, date)
			continue
		}

		if full {
			sum, err := ChecksumFile(path)
			if err != nil || sum != info.Checksum {
				report.Missing = append(report.Missing, date)
			}
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan store directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, PartitionExt+".tmp"):
			report.StaleTemps = append(report.StaleTemps, name)
		case strings.HasSuffix(name, PartitionExt):
			date, err := surface.ParseDate(strings.TrimSuffix(name, PartitionExt))
			if err != nil || !s.index.Contains(date) {
				report.Orphans = append(report.Orphans, name)
			}
		}
	}

	if !report.Clean() {
		return report, fmt.Errorf("store %s: %d missing, %d orphaned: %w",
			s.dir, len(report.Missing), len(report.Orphans), apperrors.ErrStoreInconsistency)
	}
	return report, nil
}

// ChecksumFile returns the hex sha256 of a file's content.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
