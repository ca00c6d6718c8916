package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Convert.BatchSize != DefaultBatchSize {
		t.Errorf("batch size = %d", cfg.Convert.BatchSize)
	}
	if cfg.Aggregation.WeightField != "market_cap" {
		t.Errorf("weight field = %q", cfg.Aggregation.WeightField)
	}
	if len(cfg.Aggregation.TargetDays) != len(DefaultTargetDays) {
		t.Errorf("target days = %v", cfg.Aggregation.TargetDays)
	}
	if len(cfg.Classification.SizeLabels) != len(cfg.Classification.SizeBreakpoints)+1 {
		t.Error("size labels and breakpoints misaligned")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ivhist.yaml")
	content := `
data_dir: /var/lib/ivhist
archives:
  dir: /srv/zips
convert:
  batch_size: 1000
  duplicate_policy: first
filters:
  max_vwidth: 0.1
aggregation:
  weight_field: vega
logging:
  level: debug
  json: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/ivhist" || cfg.Archives.Dir != "/srv/zips" {
		t.Errorf("paths: %q %q", cfg.DataDir, cfg.Archives.Dir)
	}
	if cfg.Convert.BatchSize != 1000 || cfg.Convert.DuplicatePolicy != "first" {
		t.Errorf("convert: %+v", cfg.Convert)
	}
	if cfg.Filters.MaxVWidth != 0.1 {
		t.Errorf("max_vwidth = %v", cfg.Filters.MaxVWidth)
	}
	if cfg.Aggregation.WeightField != "vega" {
		t.Errorf("weight_field = %q", cfg.Aggregation.WeightField)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("logging: %+v", cfg.Logging)
	}

	// Untouched keys keep their defaults.
	if cfg.Convert.Workers != DefaultConvertWorkers {
		t.Errorf("workers = %d", cfg.Convert.Workers)
	}
	if cfg.Filters.MinYears != DefaultMinYears {
		t.Errorf("min_years = %v", cfg.Filters.MinYears)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad duplicate policy", "convert:\n  duplicate_policy: merge\n", "duplicate_policy"},
		{"bad weight field", "aggregation:\n  weight_field: volume\n", "weight_field"},
		{"descending targets", "aggregation:\n  target_days: [90, 30]\n", "ascending"},
		{"misaligned sizes", "classification:\n  size_labels: [Small, Large]\n  size_breakpoints: [1e9, 5e9]\n", "size_breakpoints"},
		{"bad percentile", "classification:\n  size_percentiles: [0.3, 1.5]\n  size_labels: [a, b, c]\n", "size_percentiles"},
		{"bad compression", "compression:\n  algorithm: bz2\n", "compression"},
		{"bad filters", "filters:\n  min_years: 3\n  max_years: 1\n", "max_years"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load should fail for a missing file")
	}
	// Callers fall back to defaults on a missing file; the sentinel must
	// survive the wrap.
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load error %v does not unwrap to fs.ErrNotExist", err)
	}
}

func TestDerivedDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()

	if cfg.SurfaceDir() != filepath.Join(cfg.DataDir, "surface") {
		t.Errorf("SurfaceDir = %q", cfg.SurfaceDir())
	}
	if cfg.AggregateDir() != filepath.Join(cfg.DataDir, "aggregate") {
		t.Errorf("AggregateDir = %q", cfg.AggregateDir())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.SurfaceDir(), cfg.AggregateDir()} {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}
