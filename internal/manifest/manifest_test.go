package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/store"
	"github.com/karnek/ivhist/internal/surface"
)

func populatedStore(t *testing.T) *store.Store[store.SurfaceRow] {
	t.Helper()
	s, err := store.Open[store.SurfaceRow](t.TempDir(), store.DefaultOptions())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for _, d := range []string{"2024-03-15", "2024-03-18"} {
		date := surface.MustDate(d)
		rows := []store.SurfaceRow{{
			Ticker: "AAPL", TradingDate: d,
			Rate: 0.05, Years: 0.25, AtmVol: 0.3, AtmCen: 0.28, AtmVega: 12,
			Slope: -0.1, CallCount: 15, PutCount: 12, VWidth: 0.05,
		}}
		if _, err := s.WritePartition(date, rows); err != nil {
			t.Fatalf("WritePartition %s: %v", d, err)
		}
	}
	return s
}

func TestManifestRoundtrip(t *testing.T) {
	s := populatedStore(t)

	m := Build(s.Index())
	if len(m.Partitions) != 2 {
		t.Fatalf("partitions = %d", len(m.Partitions))
	}
	if m.Schema == "" {
		t.Error("schema fingerprint missing")
	}
	entry, ok := m.Partitions["2024-03-15"]
	if !ok || entry.Rows != 1 || entry.Checksum == "" {
		t.Errorf("entry: %+v ok=%v", entry, ok)
	}
	if entry.File != "2024-03-15"+store.PartitionExt {
		t.Errorf("file name: %q", entry.File)
	}

	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := m.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Partitions) != 2 || loaded.Schema != m.Schema {
		t.Errorf("loaded manifest differs: %+v", loaded)
	}

	dates := loaded.DateEntries()
	if len(dates) != 2 || dates[0] != "2024-03-15" || dates[1] != "2024-03-18" {
		t.Errorf("DateEntries = %v", dates)
	}
}

func TestVerifyClean(t *testing.T) {
	s := populatedStore(t)
	m := Build(s.Index())

	report, err := Verify(m, s.Dir(), s.Index())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.Clean() {
		t.Errorf("clean store reported dirty: %+v", report)
	}
	if report.Err() != nil {
		t.Errorf("Err on clean report: %v", report.Err())
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	s := populatedStore(t)
	m := Build(s.Index())

	corrupted := filepath.Join(s.Dir(), "2024-03-15"+store.PartitionExt)
	if err := os.WriteFile(corrupted, []byte("corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Verify(m, s.Dir(), s.Index())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(report.Mismatched) != 1 || report.Mismatched[0] != "2024-03-15" {
		t.Errorf("Mismatched = %v", report.Mismatched)
	}
	if !errors.Is(report.Err(), apperrors.ErrChecksumMismatch) {
		t.Errorf("want ErrChecksumMismatch, got %v", report.Err())
	}
}

func TestVerifyDetectsMissingAndExtra(t *testing.T) {
	s := populatedStore(t)
	m := Build(s.Index())

	// Remove one file and commit a partition the manifest never saw.
	if err := os.Remove(filepath.Join(s.Dir(), "2024-03-18"+store.PartitionExt)); err != nil {
		t.Fatal(err)
	}
	extra := surface.MustDate("2024-03-19")
	if _, err := s.WritePartition(extra, []store.SurfaceRow{{
		Ticker: "MSFT", TradingDate: "2024-03-19",
		Rate: 0.05, Years: 0.25, AtmVol: 0.3, AtmCen: 0.28, AtmVega: 12,
		Slope: -0.1, CallCount: 15, PutCount: 12, VWidth: 0.05,
	}}); err != nil {
		t.Fatalf("WritePartition: %v", err)
	}

	report, err := Verify(m, s.Dir(), s.Index())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(report.Missing) != 1 || report.Missing[0] != "2024-03-18" {
		t.Errorf("Missing = %v", report.Missing)
	}
	if len(report.Extra) != 1 || report.Extra[0] != "2024-03-19" {
		t.Errorf("Extra = %v", report.Extra)
	}
}
