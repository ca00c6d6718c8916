package surface

// Value types carried through aggregation. Each bucketed observation
// contributes one value per type, and forward values are synthesized for
// both.
const (
	ValueTypeAtmVol = "atmVol"
	ValueTypeAtmCen = "atmCen"
)

// TotalLabel marks a classification axis rolled up across all of its
// values in an aggregate group.
const TotalLabel = "Total"

// AggregateRow is one weighted group statistic: all instruments sharing
// a (date, sector, size, style, expiry bucket, value type) cell, with
// Total rollups occupying the same shape.
type AggregateRow struct {
	// Group identity
	Date         Date
	Sector       string
	SizeCategory string
	Style        string
	ExpiryLabel  string
	ValueType    string

	// WeightedValue is sum(value*weight)/sum(weight) over the group.
	// Undefined (Defined == false) when the total weight is zero; an
	// undefined value is stored as null, never as zero.
	WeightedValue float64
	Defined       bool

	// TotalValue is the unweighted sum of the metric over the group.
	TotalValue float64

	// ContributingCount is the number of instruments with a non-missing
	// value in the group.
	ContributingCount int64
}

// GroupKey returns the group identity without the date. Partitioning by
// date makes the date implicit within one partition.
func (a *AggregateRow) GroupKey() string {
	return a.Sector + "|" + a.SizeCategory + "|" + a.Style + "|" + a.ExpiryLabel + "|" + a.ValueType
}
