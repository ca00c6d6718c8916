// Package surface defines the data model of the ivhist pipeline: the raw
// option-surface observation, the aggregate output row, and the trading
// date key both stores are partitioned by.
package surface

import "strconv"

// Record is a single option-surface observation for one instrument and
// one expiry on one trading date. Immutable once read; the unit of raw
// ingestion.
type Record struct {
	// Identity
	Ticker string // Instrument identifier
	Date   Date   // Trading date

	// Surface point
	Rate   float64 // Risk-free rate
	Years  float64 // Time to expiration in years
	AtmVol float64 // At-the-money volatility
	AtmCen float64 // Censored at-the-money volatility
	Vega   float64 // At-the-money vega

	// Quote quality
	Slope     float64 // Volatility slope
	CallCount float64 // Number of call quotes behind the mark
	PutCount  float64 // Number of put quotes behind the mark
	VWidth    float64 // Volatility width
}

// Key identifies the observation within its date. Multiple expiries per
// ticker are the normal case; two rows sharing a Key are duplicates.
func (r *Record) Key() string {
	return r.Ticker + "@" + formatYears(r.Years)
}

// Liquid reports whether the observation passes the given liquidity
// bounds. Rows failing the bounds stay in the instrument store but are
// excluded from aggregation.
func (r *Record) Liquid(minYears, maxYears, maxAtmVol, minContracts, maxVWidth float64) bool {
	return r.Years > minYears && r.Years < maxYears &&
		r.AtmVol < maxAtmVol &&
		r.CallCount+r.PutCount >= minContracts &&
		r.VWidth <= maxVWidth
}

// formatYears renders years with enough precision to distinguish listed
// expiries (which are whole days apart) without tripping on float noise.
func formatYears(y float64) string {
	return strconv.FormatInt(int64(y*365.0+0.5), 10)
}
