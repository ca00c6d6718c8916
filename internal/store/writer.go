package store

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/surface"
)

// PartitionWriter stages one date partition. Appends stream into a
// temporary Parquet file; Commit fsyncs, publishes with an atomic
// rename, pins the schema and records the partition in the index.
// Abort discards the staging file and leaves the index untouched.
type PartitionWriter[T any] struct {
	mu sync.Mutex

	store   *Store[T]
	date    surface.Date
	replace bool

	tmpPath string
	file    *os.File
	writer  *parquet.GenericWriter[T]

	rowCount int64
	closed   bool
}

// Date returns the partition's trading date.
func (w *PartitionWriter[T]) Date() surface.Date {
	return w.date
}

// RowCount returns the number of rows appended so far.
func (w *PartitionWriter[T]) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Append writes rows into the staging file. The rows slice is free for
// reuse once Append returns, which is what keeps converter memory at
// O(batch size).
func (w *PartitionWriter[T]) Append(rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return apperrors.ErrWriterClosed
	}

	n, err := w.writer.Write(rows)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	w.rowCount += int64(n)
	return nil
}

// Commit publishes the partition. On return the partition is either
// fully visible (file renamed, index recorded) or, on error, not
// visible at all.
func (w *PartitionWriter[T]) Commit() (PartitionInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return PartitionInfo{}, apperrors.ErrWriterClosed
	}
	w.closed = true
	defer w.store.release(w.date)

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		os.Remove(w.tmpPath)
		return PartitionInfo{}, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		os.Remove(w.tmpPath)
		return PartitionInfo{}, fmt.Errorf("sync staging file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return PartitionInfo{}, fmt.Errorf("close staging file: %w", err)
	}

	checksum, err := ChecksumFile(w.tmpPath)
	if err != nil {
		os.Remove(w.tmpPath)
		return PartitionInfo{}, fmt.Errorf("checksum staging file: %w", err)
	}

	// Schema is pinned before publish so a mismatch cannot leave a
	// committed file behind.
	if err := w.store.index.EnsureSchema(w.store.fingerprint); err != nil {
		os.Remove(w.tmpPath)
		return PartitionInfo{}, err
	}

	final := w.store.PartitionPath(w.date)
	if w.replace {
		if err := os.Remove(final); err != nil && !os.IsNotExist(err) {
			os.Remove(w.tmpPath)
			return PartitionInfo{}, fmt.Errorf("remove prior partition: %w", err)
		}
	}
	if err := os.Rename(w.tmpPath, final); err != nil {
		os.Remove(w.tmpPath)
		return PartitionInfo{}, fmt.Errorf("publish partition: %w", err)
	}

	info := PartitionInfo{
		Rows:        w.rowCount,
		Checksum:    checksum,
		CommittedAt: time.Now().UTC(),
	}
	if err := w.store.index.Record(w.date, info); err != nil {
		return PartitionInfo{}, fmt.Errorf("record partition: %w", err)
	}

	return info, nil
}

// Abort discards the staged partition. Safe to call after a failed
// Append; a no-op after Commit.
func (w *PartitionWriter[T]) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	defer w.store.release(w.date)

	w.writer.Close()
	w.file.Close()
	if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staging file: %w", err)
	}
	return nil
}
