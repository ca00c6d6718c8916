// Package manifest snapshots the committed contents of a store into a
// portable JSON document and verifies a store against one, so a dataset
// can be checked for corruption or drift after a copy or restore.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/store"
	"github.com/karnek/ivhist/internal/surface"
)

// Entry describes one committed partition.
type Entry struct {
	File        string    `json:"file"`
	Rows        int64     `json:"rows"`
	Checksum    string    `json:"checksum"`
	CommittedAt time.Time `json:"committed_at"`
}

// Manifest is the full snapshot of one store directory.
type Manifest struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Schema      string           `json:"schema"`
	Partitions  map[string]Entry `json:"partitions"`
}

// Build snapshots a store's index. Checksums are taken from the index,
// not recomputed; run Verify for a byte-level check.
func Build(ix *store.Index) *Manifest {
	m := &Manifest{
		GeneratedAt: time.Now().UTC(),
		Schema:      ix.Schema(),
		Partitions:  make(map[string]Entry, ix.Len()),
	}
	for _, date := range ix.Dates() {
		info, _ := ix.Get(date)
		m.Partitions[string(date)] = Entry{
			File:        string(date) + store.PartitionExt,
			Rows:        info.Rows,
			Checksum:    info.Checksum,
			CommittedAt: info.CommittedAt,
		}
	}
	return m
}

// Write stores the manifest at path via a temp file and rename.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish manifest: %w", err)
	}
	return nil
}

// Load reads a manifest from disk.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// Report lists the differences between a manifest and a store
// directory.
type Report struct {
	// Mismatched partitions exist but hash differently.
	Mismatched []string
	// Missing partitions appear in the manifest but not on disk.
	Missing []string
	// Extra partitions are committed in the store but absent from the
	// manifest.
	Extra []string
}

// Clean reports whether the store matches the manifest.
func (r *Report) Clean() bool {
	return len(r.Mismatched) == 0 && len(r.Missing) == 0 && len(r.Extra) == 0
}

// Err converts a dirty report into an error.
func (r *Report) Err() error {
	if r.Clean() {
		return nil
	}
	return apperrors.Wrapf(apperrors.ErrChecksumMismatch,
		"%d mismatched, %d missing, %d extra partitions",
		len(r.Mismatched), len(r.Missing), len(r.Extra))
}

// Verify recomputes every checksum in the manifest against the files in
// dir and compares committed dates both ways.
func Verify(m *Manifest, dir string, ix *store.Index) (*Report, error) {
	report := &Report{}

	dates := make([]string, 0, len(m.Partitions))
	for date := range m.Partitions {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		entry := m.Partitions[date]
		path := filepath.Join(dir, entry.File)
		sum, err := store.ChecksumFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				report.Missing = append(report.Missing, date)
				continue
			}
			return nil, err
		}
		if sum != entry.Checksum {
			report.Mismatched = append(report.Mismatched, date)
		}
	}

	for _, date := range ix.Dates() {
		if _, ok := m.Partitions[string(date)]; !ok {
			report.Extra = append(report.Extra, string(date))
		}
	}
	return report, nil
}

// DateEntries returns the manifest's dates in order.
func (m *Manifest) DateEntries() []surface.Date {
	dates := make([]surface.Date, 0, len(m.Partitions))
	for d := range m.Partitions {
		dates = append(dates, surface.Date(d))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}
