package aggregate

import (
	"archive/zip"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/karnek/ivhist/internal/convert"
	"github.com/karnek/ivhist/internal/store"
	"github.com/karnek/ivhist/internal/surface"
)

const archiveHeader = "ticker_tk\ttradingDate\trate\tyears\tatmVol\tatmCen\tatmVega\tslope\tcCnt\tpCnt\tvwidth"

func archiveRow(ticker, date, vol, cen string) string {
	return ticker + "\t" + date + "\t0.05\t0.0822\t" + vol + "\t" + cen +
		"\t12.5\t-0.1\t15\t12\t0.05"
}

func writeArchive(t *testing.T, dir, date string, rows ...string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, "surfaces_"+date+".zip"))
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("surfaces.txt")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	content := archiveHeader
	for _, r := range rows {
		content += "\n" + r
	}
	if _, err := w.Write([]byte(content + "\n")); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func readGrandTotal(t *testing.T, aggregates *store.Store[store.AggRow], date surface.Date) surface.AggregateRow {
	t.Helper()
	rows, err := aggregates.ReadPartition(date)
	if err != nil {
		t.Fatalf("ReadPartition %s: %v", date, err)
	}
	for i := range rows {
		a := store.RowToAggregate(&rows[i])
		if a.GroupKey() == "Total|Total|Total|30|atmVol" {
			return a
		}
	}
	t.Fatalf("grand total row missing for %s", date)
	return surface.AggregateRow{}
}

// Both stages run back to back against shared stores: two dated
// archives become two instrument partitions and two aggregate
// partitions, then one date is invalidated and rebuilt from corrected
// input while the other stays byte-identical.
func TestConvertThenAggregate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archives.Dir = t.TempDir()
	writeSnapshots(t, cfg,
		"2024-03-15\tAAPL\t2.8e12\t1340\t\t0.8\t0.1\t\t\t\n"+
			"2024-03-15\tXOM\t4e11\t2110\t\t\t0.9\t\t\t\n"+
			"2024-03-18\tAAPL\t2.8e12\t1340\t\t0.8\t0.1\t\t\t\n"+
			"2024-03-18\tXOM\t4e11\t2110\t\t\t0.9\t\t\t\n")

	writeArchive(t, cfg.Archives.Dir, "2024-03-15",
		archiveRow("AAPL", "2024-03-15", "0.25", "0.24"),
		archiveRow("XOM", "2024-03-15", "0.30", "0.29"))
	writeArchive(t, cfg.Archives.Dir, "2024-03-18",
		archiveRow("AAPL", "2024-03-18", "0.27", "0.26"),
		archiveRow("XOM", "2024-03-18", "0.32", "0.31"))

	date1 := surface.MustDate("2024-03-15")
	date2 := surface.MustDate("2024-03-18")
	agg, surfaces, aggregates := newTestAggregator(t, cfg)
	ctx := context.Background()

	convSummary, err := convert.New(cfg, surfaces).Run(ctx, false)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if convSummary.Processed != 2 || convSummary.Rows != 4 {
		t.Fatalf("convert summary: %+v", convSummary)
	}
	aggSummary, err := agg.Run(ctx, false)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if aggSummary.Processed != 2 || len(aggSummary.Failed) != 0 {
		t.Fatalf("aggregate summary: %+v", aggSummary)
	}
	if surfaces.Index().Len() != 2 || aggregates.Index().Len() != 2 {
		t.Fatalf("partitions: surface=%d aggregate=%d",
			surfaces.Index().Len(), aggregates.Index().Len())
	}

	want := (0.25*2.8e12 + 0.30*4e11) / (2.8e12 + 4e11)
	gt := readGrandTotal(t, aggregates, date1)
	if !gt.Defined || math.Abs(gt.WeightedValue-want) > 1e-12 {
		t.Errorf("date1 grand total = %+v, want weighted %v", gt, want)
	}
	if gt.ContributingCount != 2 {
		t.Errorf("date1 grand total count = %d", gt.ContributingCount)
	}

	date2Before, ok := aggregates.Index().Get(date2)
	if !ok {
		t.Fatal("date2 aggregate missing")
	}

	// A corrected archive replaces the bad quote; only the invalidated
	// date is rebuilt.
	writeArchive(t, cfg.Archives.Dir, "2024-03-15",
		archiveRow("AAPL", "2024-03-15", "0.26", "0.25"),
		archiveRow("XOM", "2024-03-15", "0.30", "0.29"))
	if err := surfaces.Index().Invalidate(date1); err != nil {
		t.Fatalf("invalidate surface: %v", err)
	}
	if err := aggregates.Index().Invalidate(date1); err != nil {
		t.Fatalf("invalidate aggregate: %v", err)
	}

	convSummary, err = convert.New(cfg, surfaces).Run(ctx, false)
	if err != nil {
		t.Fatalf("convert rerun: %v", err)
	}
	if convSummary.Processed != 1 || convSummary.Skipped != 1 {
		t.Fatalf("convert rerun summary: %+v", convSummary)
	}
	aggSummary, err = agg.Run(ctx, false)
	if err != nil {
		t.Fatalf("aggregate rerun: %v", err)
	}
	if aggSummary.Processed != 1 || aggSummary.Skipped != 1 {
		t.Fatalf("aggregate rerun summary: %+v", aggSummary)
	}

	want = (0.26*2.8e12 + 0.30*4e11) / (2.8e12 + 4e11)
	gt = readGrandTotal(t, aggregates, date1)
	if !gt.Defined || math.Abs(gt.WeightedValue-want) > 1e-12 {
		t.Errorf("rebuilt grand total = %+v, want weighted %v", gt, want)
	}

	date2After, ok := aggregates.Index().Get(date2)
	if !ok {
		t.Fatal("date2 aggregate lost in rerun")
	}
	if date2After.Checksum != date2Before.Checksum || !date2After.CommittedAt.Equal(date2Before.CommittedAt) {
		t.Errorf("untouched date rewritten: before=%+v after=%+v", date2Before, date2After)
	}
}
