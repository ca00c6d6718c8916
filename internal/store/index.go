package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/surface"
)

// IndexFileName is the durable partition index snapshot at the store root.
const IndexFileName = "index.json"

// PartitionInfo describes one committed partition.
type PartitionInfo struct {
	// Rows is the number of rows in the partition.
	Rows int64 `json:"rows"`

	// Checksum is the sha256 of the partition file, hex-encoded.
	Checksum string `json:"checksum"`

	// CommittedAt is when the partition was published.
	CommittedAt time.Time `json:"committed_at"`
}

// indexFile is the on-disk shape of the index.
type indexFile struct {
	Version    int                             `json:"version"`
	Schema     string                          `json:"schema,omitempty"`
	Partitions map[string]PartitionInfo        `json:"partitions"`
}

// Index is the durable record of which date partitions are committed.
// It is the sole source of truth for "already processed": an entry is
// created only after a partition is durably published, and consulted
// before any write. Every mutation persists via an atomic snapshot
// (write temp, rename).
type Index struct {
	mu sync.Mutex

	path       string
	schema     string
	partitions map[surface.Date]PartitionInfo
}

// OpenIndex loads the index snapshot from dir, or starts empty when no
// snapshot exists yet.
func OpenIndex(dir string) (*Index, error) {
	ix := &Index{
		path:       filepath.Join(dir, IndexFileName),
		partitions: make(map[surface.Date]PartitionInfo),
	}

	data, err := os.ReadFile(ix.path)
	if os.IsNotExist(err) {
		return ix, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	ix.schema = file.Schema
	for date, info := range file.Partitions {
		d, err := surface.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("index entry %q: %w", date, err)
		}
		ix.partitions[d] = info
	}

	return ix, nil
}

// Contains reports whether date has a committed partition.
func (ix *Index) Contains(date surface.Date) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.partitions[date]
	return ok
}

// Get returns the committed partition info for date.
func (ix *Index) Get(date surface.Date) (PartitionInfo, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	info, ok := ix.partitions[date]
	return info, ok
}

// Record registers a durably committed partition. It must only be called
// after the partition file is published; the PartitionWriter does this.
func (ix *Index) Record(date surface.Date, info PartitionInfo) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.partitions[date] = info
	return ix.save()
}

// Invalidate removes a date's entry to force reprocessing. It does not
// delete partition data: the caller must replace the partition before
// relying on Contains again.
func (ix *Index) Invalidate(date surface.Date) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.partitions[date]; !ok {
		return fmt.Errorf("%s: %w", date, apperrors.ErrPartitionNotFound)
	}

	delete(ix.partitions, date)
	return ix.save()
}

// Dates returns all committed dates in chronological order.
func (ix *Index) Dates() []surface.Date {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	dates := make([]surface.Date, 0, len(ix.partitions))
	for d := range ix.partitions {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}

// Len returns the number of committed partitions.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.partitions)
}

// Schema returns the store's schema fingerprint, empty before the first
// commit.
func (ix *Index) Schema() string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.schema
}

// EnsureSchema pins the store schema on the first commit and rejects any
// later fingerprint that differs.
func (ix *Index) EnsureSchema(fingerprint string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.schema == "" {
		ix.schema = fingerprint
		return ix.save()
	}
	if ix.schema != fingerprint {
		return fmt.Errorf("index schema %s, write schema %s: %w",
			ix.schema, fingerprint, apperrors.ErrSchemaMismatch)
	}
	return nil
}

// save persists the index snapshot atomically. Caller holds ix.mu.
func (ix *Index) save() error {
	file := indexFile{
		Version:    1,
		Schema:     ix.schema,
		Partitions: make(map[string]PartitionInfo, len(ix.partitions)),
	}
	for date, info := range ix.partitions {
		file.Partitions[date.String()] = info
	}

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	tmp := ix.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp, ix.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish index: %w", err)
	}

	return nil
}
