package store

import (
	"github.com/karnek/ivhist/internal/surface"
)

// SurfaceRow is one option-surface observation in Parquet format. This
// struct fixes the schema of the instrument-level store.
type SurfaceRow struct {
	Ticker      string  `parquet:"ticker,zstd"`
	TradingDate string  `parquet:"trading_date,zstd"`
	Rate        float64 `parquet:"rate"`
	Years       float64 `parquet:"years"`
	AtmVol      float64 `parquet:"atm_vol"`
	AtmCen      float64 `parquet:"atm_cen"`
	AtmVega     float64 `parquet:"atm_vega"`
	Slope       float64 `parquet:"slope"`
	CallCount   float64 `parquet:"c_cnt"`
	PutCount    float64 `parquet:"p_cnt"`
	VWidth      float64 `parquet:"vwidth"`
}

// AggRow is one weighted group statistic in Parquet format. This struct
// fixes the schema of the aggregate store. WeightedValue is optional:
// a group whose total weight is zero stores null, never zero.
type AggRow struct {
	TradingDate       string   `parquet:"trading_date,zstd"`
	Sector            string   `parquet:"gics_sector,zstd"`
	SizeCategory      string   `parquet:"size_category,zstd"`
	Style             string   `parquet:"style,zstd"`
	ExpiryLabel       string   `parquet:"expiry_label,zstd"`
	ValueType         string   `parquet:"value_type,zstd"`
	WeightedValue     *float64 `parquet:"weighted_value,optional"`
	TotalValue        float64  `parquet:"total_value"`
	ContributingCount int64    `parquet:"contributing_count"`
}

// RecordToRow converts a surface.Record to a SurfaceRow.
func RecordToRow(r *surface.Record) SurfaceRow {
	return SurfaceRow{
		Ticker:      r.Ticker,
		TradingDate: r.Date.String(),
		Rate:        r.Rate,
		Years:       r.Years,
		AtmVol:      r.AtmVol,
		AtmCen:      r.AtmCen,
		AtmVega:     r.Vega,
		Slope:       r.Slope,
		CallCount:   r.CallCount,
		PutCount:    r.PutCount,
		VWidth:      r.VWidth,
	}
}

// RowToRecord converts a SurfaceRow back to a surface.Record.
func RowToRecord(row *SurfaceRow) surface.Record {
	return surface.Record{
		Ticker:    row.Ticker,
		Date:      surface.Date(row.TradingDate),
		Rate:      row.Rate,
		Years:     row.Years,
		AtmVol:    row.AtmVol,
		AtmCen:    row.AtmCen,
		Vega:      row.AtmVega,
		Slope:     row.Slope,
		CallCount: row.CallCount,
		PutCount:  row.PutCount,
		VWidth:    row.VWidth,
	}
}

// AggregateToRow converts a surface.AggregateRow to an AggRow.
func AggregateToRow(a *surface.AggregateRow) AggRow {
	row := AggRow{
		TradingDate:       a.Date.String(),
		Sector:            a.Sector,
		SizeCategory:      a.SizeCategory,
		Style:             a.Style,
		ExpiryLabel:       a.ExpiryLabel,
		ValueType:         a.ValueType,
		TotalValue:        a.TotalValue,
		ContributingCount: a.ContributingCount,
	}

	if a.Defined {
		v := a.WeightedValue
		row.WeightedValue = &v
	}

	return row
}

// RowToAggregate converts an AggRow back to a surface.AggregateRow.
func RowToAggregate(row *AggRow) surface.AggregateRow {
	a := surface.AggregateRow{
		Date:              surface.Date(row.TradingDate),
		Sector:            row.Sector,
		SizeCategory:      row.SizeCategory,
		Style:             row.Style,
		ExpiryLabel:       row.ExpiryLabel,
		ValueType:         row.ValueType,
		TotalValue:        row.TotalValue,
		ContributingCount: row.ContributingCount,
	}

	if row.WeightedValue != nil {
		a.WeightedValue = *row.WeightedValue
		a.Defined = true
	}

	return a
}
