package aggregate

import (
	"sort"

	"github.com/karnek/ivhist/internal/classify"
	"github.com/karnek/ivhist/internal/surface"
)

// classified is an observation joined with its cohort and weight.
type classified struct {
	observation
	class  classify.Classification
	weight float64
}

type groupKey struct {
	sector    string
	size      string
	style     string
	expiry    string
	valueType string
}

type groupAcc struct {
	weightedSum float64
	weightSum   float64
	valueSum    float64
	count       int64
}

// rollupMasks enumerates every subset of the classification axes to
// roll up; bit 0 replaces sector, bit 1 size, bit 2 style with the
// Total label. Mask 0 is the fully detailed grouping.
const rollupMasks = 8

// reduce folds classified observations into one aggregate row per
// (group, expiry, value type) across all rollup masks. Rows come out in
// sorted key order; callers feed observations in ticker order so the
// accumulated sums are bit-for-bit reproducible across runs.
func reduce(date surface.Date, obs []classified) []surface.AggregateRow {
	groups := make(map[groupKey]*groupAcc)
	for i := range obs {
		o := &obs[i]
		for mask := 0; mask < rollupMasks; mask++ {
			key := groupKey{
				sector:    o.class.Sector,
				size:      o.class.SizeCategory,
				style:     o.class.Style,
				expiry:    o.expiryLabel,
				valueType: o.valueType,
			}
			if mask&1 != 0 {
				key.sector = surface.TotalLabel
			}
			if mask&2 != 0 {
				key.size = surface.TotalLabel
			}
			if mask&4 != 0 {
				key.style = surface.TotalLabel
			}
			acc := groups[key]
			if acc == nil {
				acc = &groupAcc{}
				groups[key] = acc
			}
			acc.weightedSum += o.value * o.weight
			acc.weightSum += o.weight
			acc.valueSum += o.value
			acc.count++
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.sector != b.sector {
			return a.sector < b.sector
		}
		if a.size != b.size {
			return a.size < b.size
		}
		if a.style != b.style {
			return a.style < b.style
		}
		if a.expiry != b.expiry {
			return a.expiry < b.expiry
		}
		return a.valueType < b.valueType
	})

	rows := make([]surface.AggregateRow, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		row := surface.AggregateRow{
			Date:              date,
			Sector:            key.sector,
			SizeCategory:      key.size,
			Style:             key.style,
			ExpiryLabel:       key.expiry,
			ValueType:         key.valueType,
			TotalValue:        acc.valueSum,
			ContributingCount: acc.count,
		}
		// Zero total weight leaves the weighted mean undefined; the row
		// is kept with a null weighted_value rather than a fake zero.
		if acc.weightSum > 0 {
			row.WeightedValue = acc.weightedSum / acc.weightSum
			row.Defined = true
		}
		rows = append(rows, row)
	}
	return rows
}
