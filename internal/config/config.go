package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration.
type Config struct {
	// DataDir is the root directory for both columnar stores.
	DataDir string `yaml:"data_dir"`

	// Archives configures the raw archive input.
	Archives ArchivesConfig `yaml:"archives"`

	// Convert configures the ZIP-to-store converter.
	Convert ConvertConfig `yaml:"convert"`

	// Filters configures the liquidity filters applied before aggregation.
	Filters FiltersConfig `yaml:"filters"`

	// Classification configures sector/size/style resolution.
	Classification ClassificationConfig `yaml:"classification"`

	// Aggregation configures the weighted aggregation stage.
	Aggregation AggregationConfig `yaml:"aggregation"`

	// Compression configures Parquet compression for both stores.
	Compression CompressionConfig `yaml:"compression"`

	// Query configures the read-only query service.
	Query QueryConfig `yaml:"query"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// ArchivesConfig configures the raw archive input.
type ArchivesConfig struct {
	// Dir is the directory holding one ZIP per trading date.
	// The date key is taken from the first YYYY-MM-DD in the file name.
	Dir string `yaml:"dir"`
}

// ConvertConfig configures the ZIP-to-store converter.
type ConvertConfig struct {
	// BatchSize is the maximum number of raw rows held in memory per
	// in-flight date. This is the sole backpressure mechanism of the
	// conversion stage.
	BatchSize int `yaml:"batch_size"`

	// Workers is the number of dates converted concurrently.
	Workers int `yaml:"workers"`

	// DuplicatePolicy controls what happens when the same
	// (ticker, expiry) observation appears twice within one date:
	// "error" (reject the archive) or "first" (keep the first, drop
	// the rest).
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

// FiltersConfig configures the liquidity filters applied before aggregation.
// A row failing any filter is excluded from aggregation but stays in the
// instrument-level store untouched.
type FiltersConfig struct {
	// MinYears excludes observations expiring sooner than this.
	MinYears float64 `yaml:"min_years"`

	// MaxYears excludes observations expiring later than this.
	MaxYears float64 `yaml:"max_years"`

	// MaxAtmVol excludes implausible volatility marks.
	MaxAtmVol float64 `yaml:"max_atm_vol"`

	// MinContracts is the minimum call+put count for a usable quote.
	MinContracts float64 `yaml:"min_contracts"`

	// MaxVWidth is the maximum volatility width for a usable quote.
	MaxVWidth float64 `yaml:"max_vwidth"`
}

// ClassificationConfig configures sector/size/style resolution.
type ClassificationConfig struct {
	// SnapshotPath is the tab-separated per-(date,ticker) reference file
	// carrying market cap, industry code and style scores.
	SnapshotPath string `yaml:"snapshot_path"`

	// SizeBreakpoints are the ascending market-cap cut points between
	// size categories. A cap exactly at a breakpoint falls in the
	// lower category.
	SizeBreakpoints []float64 `yaml:"size_breakpoints"`

	// SizeLabels are the category names, lowest first. Must be exactly
	// one longer than SizeBreakpoints.
	SizeLabels []string `yaml:"size_labels"`

	// SizePercentiles, when non-empty, replaces SizeBreakpoints with
	// per-date percentile cut points (0-1) over that date's market caps.
	SizePercentiles []float64 `yaml:"size_percentiles"`
}

// AggregationConfig configures the weighted aggregation stage.
type AggregationConfig struct {
	// TargetDays are the expiry bucket targets in calendar days.
	// Each observation is assigned to the closest target.
	TargetDays []int `yaml:"target_days"`

	// WeightField selects the per-row weight for weighted_value:
	// "market_cap" or "vega".
	WeightField string `yaml:"weight_field"`

	// Workers is the number of dates aggregated concurrently.
	Workers int `yaml:"workers"`
}

// CompressionConfig configures Parquet compression.
type CompressionConfig struct {
	// Algorithm: zstd, snappy, lz4, gzip or none.
	Algorithm string `yaml:"algorithm"`

	// Level for algorithms that support it (zstd: 1-22).
	Level int `yaml:"level"`
}

// QueryConfig configures the read-only query service.
type QueryConfig struct {
	// MemoryLimit is the DuckDB memory limit, e.g. "1GB".
	MemoryLimit string `yaml:"memory_limit"`

	// MaxRows caps the number of rows a query may return. 0 means no cap.
	MaxRows int `yaml:"max_rows"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level: debug, info, warn or error.
	Level string `yaml:"level"`

	// JSON switches the handler to JSON output.
	JSON bool `yaml:"json"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Archives: ArchivesConfig{
			Dir: "zips",
		},
		Convert: ConvertConfig{
			BatchSize:       DefaultBatchSize,
			Workers:         DefaultConvertWorkers,
			DuplicatePolicy: DefaultDuplicatePolicy,
		},
		Filters: FiltersConfig{
			MinYears:     DefaultMinYears,
			MaxYears:     DefaultMaxYears,
			MaxAtmVol:    DefaultMaxAtmVol,
			MinContracts: DefaultMinContracts,
			MaxVWidth:    DefaultMaxVWidth,
		},
		Classification: ClassificationConfig{
			SnapshotPath:    "reference/daily_ticker.tsv",
			SizeBreakpoints: []float64{DefaultMidCapFloor, DefaultLargeCapFloor},
			SizeLabels:      []string{"Small Cap", "Mid Cap", "Large Cap"},
		},
		Aggregation: AggregationConfig{
			TargetDays:  append([]int(nil), DefaultTargetDays...),
			WeightField: DefaultWeightField,
			Workers:     DefaultAggregateWorkers,
		},
		Compression: CompressionConfig{
			Algorithm: "zstd",
			Level:     3,
		},
		Query: QueryConfig{
			MemoryLimit: "1GB",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SurfaceDir returns the instrument-level store directory.
func (c *Config) SurfaceDir() string {
	return filepath.Join(c.DataDir, "surface")
}

// AggregateDir returns the aggregate store directory.
func (c *Config) AggregateDir() string {
	return filepath.Join(c.DataDir, "aggregate")
}

// EnsureDirectories creates the store directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.SurfaceDir(), c.AggregateDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
