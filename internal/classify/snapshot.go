package classify

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/karnek/ivhist/internal/surface"
)

// Styles is the canonical investment style order. An instrument's style
// is the highest-scoring entry for its (date, ticker); score ties break
// toward the earlier entry, so resolution is deterministic.
var Styles = []string{
	"Aggressive_Growth",
	"Growth",
	"Value",
	"Deep_Value",
	"GARP",
	"Yield",
}

// StyleUnclassified is assigned when no style score is available.
const StyleUnclassified = "Unclassified"

// Snapshot is the per-(date, ticker) market data a classification is
// derived from: a value snapshot plus the static industry identifier.
type Snapshot struct {
	MarketCap    float64
	IndustryCode int

	// StyleScores holds one score per style in Styles order; NaN-free,
	// with ok=false bits tracked by presence in the map.
	StyleScores map[string]float64
}

// SnapshotTable holds the daily instrument reference data, loaded once
// per run from a tab-separated file with columns tradingDate, ticker,
// mktcap, fs_industry_code and one column per style score.
type SnapshotTable struct {
	byDate map[surface.Date]map[string]Snapshot
}

// LoadSnapshots reads the reference file. Rows with an unparseable date,
// ticker or market cap are skipped; style scores and industry codes are
// optional per row.
func LoadSnapshots(path string) (*SnapshotTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	t := &SnapshotTable{byDate: make(map[surface.Date]map[string]Snapshot)}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read snapshot header: %w", err)
		}
		return t, nil
	}
	columns := strings.Split(strings.TrimRight(sc.Text(), "\r\n"), "\t")
	col := make(map[string]int, len(columns))
	for i, name := range columns {
		col[name] = i
	}
	for _, name := range []string{"tradingDate", "ticker", "mktcap"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("snapshot file missing column %q", name)
		}
	}

	for sc.Scan() {
		values := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(values) {
				return ""
			}
			return strings.TrimSpace(values[i])
		}

		date, err := surface.ParseDate(field("tradingDate"))
		if err != nil {
			continue
		}
		ticker := field("ticker")
		if ticker == "" {
			continue
		}
		marketCap, err := strconv.ParseFloat(field("mktcap"), 64)
		if err != nil {
			continue
		}

		snap := Snapshot{MarketCap: marketCap}
		if code, err := strconv.Atoi(field("fs_industry_code")); err == nil {
			snap.IndustryCode = code
		}
		for _, style := range Styles {
			if s := field(style); s != "" {
				if score, err := strconv.ParseFloat(s, 64); err == nil {
					if snap.StyleScores == nil {
						snap.StyleScores = make(map[string]float64, len(Styles))
					}
					snap.StyleScores[style] = score
				}
			}
		}

		day := t.byDate[date]
		if day == nil {
			day = make(map[string]Snapshot)
			t.byDate[date] = day
		}
		day[ticker] = snap
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	return t, nil
}

// Lookup returns the snapshot for one (date, ticker).
func (t *SnapshotTable) Lookup(date surface.Date, ticker string) (Snapshot, bool) {
	snap, ok := t.byDate[date][ticker]
	return snap, ok
}

// MarketCaps returns all market caps known for one date, for
// percentile-mode breakpoints.
func (t *SnapshotTable) MarketCaps(date surface.Date) []float64 {
	day := t.byDate[date]
	caps := make([]float64, 0, len(day))
	for _, snap := range day {
		caps = append(caps, snap.MarketCap)
	}
	return caps
}

// Dates returns the number of dates the table covers.
func (t *SnapshotTable) Dates() int {
	return len(t.byDate)
}
