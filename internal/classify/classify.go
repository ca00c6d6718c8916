// Package classify maps instruments to their cross-sectional cohorts:
// GICS sector from the FactSet industry code, size bucket from market
// cap and style from the dominant style score.
package classify

import (
	"sort"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/karnek/ivhist/internal/config"
	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/surface"
)

const sketchRelativeAccuracy = 0.001

// Classification is the cohort assignment for one (date, ticker).
type Classification struct {
	Sector       string
	SizeCategory string
	Style        string
}

// Resolver classifies instruments against a snapshot table. Size
// breakpoints come either from fixed absolute values or, in percentile
// mode, from that date's market cap distribution; per-date breakpoints
// are cached after first use.
type Resolver struct {
	snapshots   *SnapshotTable
	labels      []string
	breakpoints []float64
	percentiles []float64

	mu     sync.Mutex
	byDate map[surface.Date][]float64
}

// NewResolver builds a resolver from the classification config. The
// config is assumed validated: len(labels) == len(breakpoints)+1, and
// percentiles, when set, take precedence over absolute breakpoints.
func NewResolver(cfg config.ClassificationConfig, snapshots *SnapshotTable) *Resolver {
	return &Resolver{
		snapshots:   snapshots,
		labels:      cfg.SizeLabels,
		breakpoints: cfg.SizeBreakpoints,
		percentiles: cfg.SizePercentiles,
		byDate:      make(map[surface.Date][]float64),
	}
}

// Resolve classifies one instrument. The second return is false when no
// snapshot exists for the (date, ticker); such rows carry no weight and
// are dropped by the caller.
func (r *Resolver) Resolve(date surface.Date, ticker string) (Classification, bool, error) {
	snap, ok := r.snapshots.Lookup(date, ticker)
	if !ok {
		return Classification{}, false, nil
	}

	breakpoints, err := r.breakpointsFor(date)
	if err != nil {
		return Classification{}, false, err
	}

	return Classification{
		Sector:       SectorForIndustry(snap.IndustryCode),
		SizeCategory: sizeFor(snap.MarketCap, breakpoints, r.labels),
		Style:        styleFor(snap.StyleScores),
	}, true, nil
}

// MarketCap returns the weight snapshot for one instrument.
func (r *Resolver) MarketCap(date surface.Date, ticker string) (float64, bool) {
	snap, ok := r.snapshots.Lookup(date, ticker)
	return snap.MarketCap, ok
}

// breakpointsFor returns the size breakpoints in effect for a date.
func (r *Resolver) breakpointsFor(date surface.Date) ([]float64, error) {
	if len(r.percentiles) == 0 {
		return r.breakpoints, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if bps, ok := r.byDate[date]; ok {
		return bps, nil
	}

	caps := r.snapshots.MarketCaps(date)
	if len(caps) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNoSnapshot, "no market caps for %s", date)
	}

	sketch, err := ddsketch.NewDefaultDDSketch(sketchRelativeAccuracy)
	if err != nil {
		return nil, err
	}
	for _, c := range caps {
		if err := sketch.Add(c); err != nil {
			return nil, err
		}
	}

	bps := make([]float64, len(r.percentiles))
	for i, q := range r.percentiles {
		v, err := sketch.GetValueAtQuantile(q)
		if err != nil {
			return nil, err
		}
		bps[i] = v
	}
	sort.Float64s(bps)
	r.byDate[date] = bps
	return bps, nil
}

// sizeFor buckets a market cap. Buckets are half-open from above: a cap
// exactly at a breakpoint belongs to the lower bucket.
func sizeFor(marketCap float64, breakpoints []float64, labels []string) string {
	for i, bp := range breakpoints {
		if marketCap <= bp {
			return labels[i]
		}
	}
	return labels[len(labels)-1]
}

// styleFor picks the highest-scoring style; ties break toward the
// earlier entry in Styles.
func styleFor(scores map[string]float64) string {
	best := StyleUnclassified
	bestScore := 0.0
	for _, style := range Styles {
		score, ok := scores[style]
		if !ok {
			continue
		}
		if best == StyleUnclassified || score > bestScore {
			best = style
			bestScore = score
		}
	}
	return best
}
