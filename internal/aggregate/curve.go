package aggregate

import (
	"math"
	"sort"
	"strconv"

	"github.com/karnek/ivhist/internal/surface"
)

const daysPerYear = 365.0

// observation is one melted (ticker, expiry, value type) data point
// awaiting classification and weighting.
type observation struct {
	ticker      string
	expiryLabel string
	valueType   string
	value       float64

	// vega backs vega weighting; bucket points carry their own vega,
	// forward points the far bucket's.
	vega float64
}

// bucketed is the closest surviving quote for one expiry target.
type bucketed struct {
	record surface.Record
	diff   float64
}

// assignBuckets maps each record of one ticker to its closest expiry
// target, keeping only the record with the smallest distance per
// target. Distance ties break toward the shorter expiry.
func assignBuckets(records []surface.Record, targets []int) map[int]surface.Record {
	best := make(map[int]bucketed, len(targets))
	for _, rec := range records {
		days := rec.Years * daysPerYear
		target := targets[0]
		diff := math.Abs(days - float64(targets[0]))
		for _, tgt := range targets[1:] {
			if d := math.Abs(days - float64(tgt)); d < diff {
				target, diff = tgt, d
			}
		}
		cur, ok := best[target]
		if !ok || diff < cur.diff || (diff == cur.diff && rec.Years < cur.record.Years) {
			best[target] = bucketed{record: rec, diff: diff}
		}
	}
	out := make(map[int]surface.Record, len(best))
	for tgt, b := range best {
		out[tgt] = b.record
	}
	return out
}

// forwardVol solves the variance identity between two spot vols. The
// second return is false when the interval is degenerate or total
// variance decreases, where no real forward exists.
func forwardVol(v1, v2 float64, t1d, t2d int) (float64, bool) {
	t1 := float64(t1d) / daysPerYear
	t2 := float64(t2d) / daysPerYear
	if t2 <= t1 {
		return 0, false
	}
	variance := (v2*v2*t2 - v1*v1*t1) / (t2 - t1)
	if variance < 0 {
		return 0, false
	}
	return math.Sqrt(variance), true
}

// forwardLabel names the forward between two targets, e.g. "fwd_30_60".
func forwardLabel(t1, t2 int) string {
	return "fwd_" + strconv.Itoa(t1) + "_" + strconv.Itoa(t2)
}

// meltTicker expands one ticker's bucketed quotes into observations:
// a spot point per occupied bucket and a forward point per adjacent
// bucket pair where both ends are present, each emitted for both value
// types. Output is ordered by target then value type.
func meltTicker(ticker string, buckets map[int]surface.Record, targets []int) []observation {
	present := make([]int, 0, len(buckets))
	for tgt := range buckets {
		present = append(present, tgt)
	}
	sort.Ints(present)

	out := make([]observation, 0, 4*len(present))
	for _, tgt := range present {
		rec := buckets[tgt]
		label := strconv.Itoa(tgt)
		out = append(out,
			observation{ticker, label, surface.ValueTypeAtmVol, rec.AtmVol, rec.Vega},
			observation{ticker, label, surface.ValueTypeAtmCen, rec.AtmCen, rec.Vega},
		)
	}
	for i := 0; i+1 < len(targets); i++ {
		t1, t2 := targets[i], targets[i+1]
		near, ok1 := buckets[t1]
		far, ok2 := buckets[t2]
		if !ok1 || !ok2 {
			continue
		}
		label := forwardLabel(t1, t2)
		if fwd, ok := forwardVol(near.AtmVol, far.AtmVol, t1, t2); ok {
			out = append(out, observation{ticker, label, surface.ValueTypeAtmVol, fwd, far.Vega})
		}
		if fwd, ok := forwardVol(near.AtmCen, far.AtmCen, t1, t2); ok {
			out = append(out, observation{ticker, label, surface.ValueTypeAtmCen, fwd, far.Vega})
		}
	}
	return out
}
