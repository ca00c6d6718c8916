// Package config provides configuration loading and defaults for the
// ivhist pipeline.
//
// All configurable constants are defined here with documented defaults.
// Users can override these values via config.yaml.
package config

// =============================================================================
// Conversion Defaults
// =============================================================================

const (
	// DefaultBatchSize caps the raw rows resident in memory per in-flight
	// date during conversion. Memory use is O(batch size), never
	// O(archive size).
	// Override via config: convert.batch_size
	DefaultBatchSize = 5000

	// DefaultConvertWorkers is the number of dates converted concurrently.
	// Partitions are independent files, so dates parallelize cleanly.
	// Override via config: convert.workers
	DefaultConvertWorkers = 4

	// DefaultDuplicatePolicy controls duplicate (ticker, expiry)
	// observations within one date. "error" is the safe default: the
	// upstream feed does not document which copy wins.
	// Override via config: convert.duplicate_policy
	DefaultDuplicatePolicy = "error"
)

// =============================================================================
// Liquidity Filter Defaults
// =============================================================================

const (
	// DefaultMinYears drops observations within a few days of expiry,
	// where the volatility surface is unreliable.
	// Override via config: filters.min_years
	DefaultMinYears = 0.01

	// DefaultMaxYears drops observations beyond two years out.
	// Override via config: filters.max_years
	DefaultMaxYears = 2.0

	// DefaultMaxAtmVol drops implausible volatility marks.
	// Override via config: filters.max_atm_vol
	DefaultMaxAtmVol = 1.5

	// DefaultMinContracts is the minimum call+put count for a quote to
	// count as liquid.
	// Override via config: filters.min_contracts
	DefaultMinContracts = 20

	// DefaultMaxVWidth is the maximum volatility width for a quote to
	// count as liquid.
	// Override via config: filters.max_vwidth
	DefaultMaxVWidth = 0.2
)

// =============================================================================
// Classification Defaults
// =============================================================================

const (
	// DefaultMidCapFloor is the market cap at which an instrument stops
	// being small cap. A cap exactly at the floor stays in the lower
	// category.
	// Override via config: classification.size_breakpoints
	DefaultMidCapFloor = 2e9

	// DefaultLargeCapFloor is the market cap at which an instrument stops
	// being mid cap.
	// Override via config: classification.size_breakpoints
	DefaultLargeCapFloor = 10e9
)

// =============================================================================
// Aggregation Defaults
// =============================================================================

// DefaultTargetDays are the expiry bucket targets in calendar days.
// Override via config: aggregation.target_days
var DefaultTargetDays = []int{30, 60, 90, 120, 180, 270, 360, 540, 720}

const (
	// DefaultWeightField weights weighted_value by market cap, matching
	// the published dataset. The alternative is "vega".
	// Override via config: aggregation.weight_field
	DefaultWeightField = "market_cap"

	// DefaultAggregateWorkers is the number of dates aggregated
	// concurrently.
	// Override via config: aggregation.workers
	DefaultAggregateWorkers = 4
)
