package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}

	if err := c.Convert.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("convert: %w", err))
	}

	if err := c.Filters.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("filters: %w", err))
	}

	if err := c.Classification.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("classification: %w", err))
	}

	if err := c.Aggregation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("aggregation: %w", err))
	}

	if err := c.Compression.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("compression: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the converter configuration.
func (c *ConvertConfig) Validate() error {
	var errs []error

	if c.BatchSize <= 0 {
		errs = append(errs, errors.New("batch_size must be positive"))
	}

	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}

	switch c.DuplicatePolicy {
	case "error", "first":
	default:
		errs = append(errs, fmt.Errorf("duplicate_policy %q must be error or first", c.DuplicatePolicy))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the liquidity filter configuration.
func (c *FiltersConfig) Validate() error {
	var errs []error

	if c.MinYears < 0 {
		errs = append(errs, errors.New("min_years must not be negative"))
	}

	if c.MaxYears <= c.MinYears {
		errs = append(errs, errors.New("max_years must exceed min_years"))
	}

	if c.MaxAtmVol <= 0 {
		errs = append(errs, errors.New("max_atm_vol must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the classification configuration.
func (c *ClassificationConfig) Validate() error {
	var errs []error

	if len(c.SizeLabels) < 2 {
		errs = append(errs, errors.New("at least two size_labels required"))
	}

	if len(c.SizePercentiles) > 0 {
		if len(c.SizePercentiles) != len(c.SizeLabels)-1 {
			errs = append(errs, errors.New("size_percentiles must be one shorter than size_labels"))
		}
		for i, p := range c.SizePercentiles {
			if p <= 0 || p >= 1 {
				errs = append(errs, fmt.Errorf("size_percentiles[%d] must be in (0,1)", i))
			}
			if i > 0 && p <= c.SizePercentiles[i-1] {
				errs = append(errs, errors.New("size_percentiles must be strictly ascending"))
			}
		}
	} else {
		if len(c.SizeBreakpoints) != len(c.SizeLabels)-1 {
			errs = append(errs, errors.New("size_breakpoints must be one shorter than size_labels"))
		}
		for i := 1; i < len(c.SizeBreakpoints); i++ {
			if c.SizeBreakpoints[i] <= c.SizeBreakpoints[i-1] {
				errs = append(errs, errors.New("size_breakpoints must be strictly ascending"))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the aggregation configuration.
func (c *AggregationConfig) Validate() error {
	var errs []error

	if len(c.TargetDays) == 0 {
		errs = append(errs, errors.New("target_days must not be empty"))
	}
	for i := 1; i < len(c.TargetDays); i++ {
		if c.TargetDays[i] <= c.TargetDays[i-1] {
			errs = append(errs, errors.New("target_days must be strictly ascending"))
		}
	}

	switch c.WeightField {
	case "market_cap", "vega":
	default:
		errs = append(errs, fmt.Errorf("weight_field %q must be market_cap or vega", c.WeightField))
	}

	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the compression configuration.
func (c *CompressionConfig) Validate() error {
	switch c.Algorithm {
	case "zstd", "snappy", "lz4", "gzip", "none", "":
		return nil
	default:
		return fmt.Errorf("unknown compression algorithm %q", c.Algorithm)
	}
}
