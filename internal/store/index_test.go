package store

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/surface"
)

func testInfo(rows int64) PartitionInfo {
	return PartitionInfo{
		Rows:        rows,
		Checksum:    "deadbeef",
		CommittedAt: time.Now().UTC(),
	}
}

func TestIndexRecordAndReopen(t *testing.T) {
	dir := t.TempDir()

	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	if ix.Len() != 0 {
		t.Errorf("fresh index Len = %d", ix.Len())
	}

	date := surface.MustDate("2024-03-15")
	if err := ix.Record(date, testInfo(100)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !ix.Contains(date) {
		t.Error("Contains after Record = false")
	}

	reopened, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	info, ok := reopened.Get(date)
	if !ok {
		t.Fatal("entry not persisted")
	}
	if info.Rows != 100 || info.Checksum != "deadbeef" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestIndexInvalidate(t *testing.T) {
	dir := t.TempDir()
	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}

	date := surface.MustDate("2024-03-15")
	if err := ix.Record(date, testInfo(1)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ix.Invalidate(date); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if ix.Contains(date) {
		t.Error("Contains after Invalidate = true")
	}

	if err := ix.Invalidate(date); !errors.Is(err, apperrors.ErrPartitionNotFound) {
		t.Errorf("want ErrPartitionNotFound, got %v", err)
	}

	reopened, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Contains(date) {
		t.Error("invalidation not persisted")
	}
}

func TestIndexDatesSorted(t *testing.T) {
	ix, err := OpenIndex(t.TempDir())
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	for _, d := range []string{"2024-03-15", "2024-01-02", "2024-02-20"} {
		if err := ix.Record(surface.MustDate(d), testInfo(1)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	dates := ix.Dates()
	want := []surface.Date{"2024-01-02", "2024-02-20", "2024-03-15"}
	if len(dates) != len(want) {
		t.Fatalf("got %v", dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("got %v, want %v", dates, want)
		}
	}
}

func TestIndexEnsureSchema(t *testing.T) {
	dir := t.TempDir()
	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}

	if err := ix.EnsureSchema("aaaa1111"); err != nil {
		t.Fatalf("first EnsureSchema: %v", err)
	}
	if err := ix.EnsureSchema("aaaa1111"); err != nil {
		t.Fatalf("same EnsureSchema: %v", err)
	}
	if err := ix.EnsureSchema("bbbb2222"); !errors.Is(err, apperrors.ErrSchemaMismatch) {
		t.Errorf("want ErrSchemaMismatch, got %v", err)
	}

	reopened, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Schema() != "aaaa1111" {
		t.Errorf("schema not persisted: %q", reopened.Schema())
	}
}
