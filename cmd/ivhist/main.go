// ivhist builds and serves the implied volatility history dataset:
// daily archives are converted into a date-partitioned Parquet store,
// aggregated into weighted cross-sectional cohorts and exposed to SQL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	iofs "io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/karnek/ivhist/internal/aggregate"
	"github.com/karnek/ivhist/internal/classify"
	"github.com/karnek/ivhist/internal/config"
	"github.com/karnek/ivhist/internal/convert"
	"github.com/karnek/ivhist/internal/logging"
	"github.com/karnek/ivhist/internal/manifest"
	"github.com/karnek/ivhist/internal/query"
	"github.com/karnek/ivhist/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

const usage = `ivhist %s

Usage: ivhist <command> [flags]

Commands:
  convert    ingest daily archives into the surface store
  aggregate  compute weighted cross-sectional aggregates
  run        convert then aggregate
  verify     check store consistency, optionally against a manifest
  manifest   write a checksum manifest of the stores
  query      run an ad-hoc SQL query over the partitions
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, Version)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	cfgPath := fs.String("config", "ivhist.yaml", "config file path")
	dataDir := fs.String("data", "", "data directory (overrides config)")
	archiveDir := fs.String("archives", "", "archive directory (overrides config)")
	force := fs.Bool("force", false, "rebuild already-committed dates")
	full := fs.Bool("full", false, "verify: recompute all checksums")
	manifestPath := fs.String("manifest", "", "manifest file (verify/manifest)")
	sqlQuery := fs.String("sql", "", "query: SQL statement to execute")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *archiveDir != "" {
		cfg.Archives.Dir = *archiveDir
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)
	log := logging.Component("main")
	log.Info("ivhist starting", "version", Version, "command", command)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch command {
	case "convert":
		runErr = runConvert(ctx, cfg, *force)
	case "aggregate":
		runErr = runAggregate(ctx, cfg, *force)
	case "run":
		if runErr = runConvert(ctx, cfg, *force); runErr == nil {
			runErr = runAggregate(ctx, cfg, *force)
		}
	case "verify":
		runErr = runVerify(cfg, *full, *manifestPath)
	case "manifest":
		runErr = runManifest(cfg, *manifestPath)
	case "query":
		runErr = runQuery(ctx, cfg, *sqlQuery)
	default:
		fmt.Fprintf(os.Stderr, usage, Version)
		os.Exit(2)
	}
	if runErr != nil {
		log.Error("command failed", "command", command, "error", runErr)
		os.Exit(1)
	}
}

func storeOptions(cfg *config.Config) store.Options {
	opts := store.DefaultOptions()
	opts.Compression = store.ParseCompressionType(cfg.Compression.Algorithm)
	if cfg.Compression.Level > 0 {
		opts.CompressionLevel = cfg.Compression.Level
	}
	return opts
}

func openSurfaces(cfg *config.Config) (*store.Store[store.SurfaceRow], error) {
	return store.Open[store.SurfaceRow](cfg.SurfaceDir(), storeOptions(cfg))
}

func openAggregates(cfg *config.Config) (*store.Store[store.AggRow], error) {
	return store.Open[store.AggRow](cfg.AggregateDir(), storeOptions(cfg))
}

func runConvert(ctx context.Context, cfg *config.Config, force bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	surfaces, err := openSurfaces(cfg)
	if err != nil {
		return err
	}

	summary, err := convert.New(cfg, surfaces).Run(ctx, force)
	if err != nil {
		return err
	}
	logging.Info("conversion finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
		"rows", summary.Rows,
		"bad_rows", summary.BadRows,
		"duplicates", summary.Duplicates)
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d archives failed", len(summary.Failed))
	}
	return nil
}

func runAggregate(ctx context.Context, cfg *config.Config, force bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	surfaces, err := openSurfaces(cfg)
	if err != nil {
		return err
	}
	aggregates, err := openAggregates(cfg)
	if err != nil {
		return err
	}
	snapshots, err := classify.LoadSnapshots(cfg.Classification.SnapshotPath)
	if err != nil {
		return err
	}
	resolver := classify.NewResolver(cfg.Classification, snapshots)

	summary, err := aggregate.New(cfg, surfaces, aggregates, resolver).Run(ctx, force)
	if err != nil {
		return err
	}
	logging.Info("aggregation finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
		"rows", summary.RowsWritten,
		"observations", summary.Observations,
		"no_snapshot", summary.NoSnapshot)
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d dates failed", len(summary.Failed))
	}
	return nil
}

func runVerify(cfg *config.Config, full bool, manifestPath string) error {
	surfaces, err := openSurfaces(cfg)
	if err != nil {
		return err
	}
	aggregates, err := openAggregates(cfg)
	if err != nil {
		return err
	}

	surfReport, surfErr := surfaces.VerifyConsistency(full)
	if surfReport == nil {
		return surfErr
	}
	aggReport, aggErr := aggregates.VerifyConsistency(full)
	if aggReport == nil {
		return aggErr
	}
	printConsistency("surface", surfaces.Index().Len(), surfReport)
	printConsistency("aggregate", aggregates.Index().Len(), aggReport)

	if manifestPath != "" {
		m, err := manifest.Load(manifestPath)
		if err != nil {
			return err
		}
		report, err := manifest.Verify(m, cfg.SurfaceDir(), surfaces.Index())
		if err != nil {
			return err
		}
		fmt.Printf("manifest: %d mismatched, %d missing, %d extra\n",
			len(report.Mismatched), len(report.Missing), len(report.Extra))
		if err := report.Err(); err != nil {
			return err
		}
	}

	if surfErr != nil {
		return surfErr
	}
	if aggErr != nil {
		return aggErr
	}
	fmt.Println("stores consistent")
	return nil
}

func printConsistency(name string, partitions int, r *store.ConsistencyReport) {
	fmt.Printf("%s: %d partitions, %d missing, %d orphans, %d stale temps\n",
		name, partitions, len(r.Missing), len(r.Orphans), len(r.StaleTemps))
}

func runManifest(cfg *config.Config, path string) error {
	if path == "" {
		path = filepath.Join(cfg.DataDir, "manifest.json")
	}
	surfaces, err := openSurfaces(cfg)
	if err != nil {
		return err
	}
	m := manifest.Build(surfaces.Index())
	if err := m.Write(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d partitions)\n", path, len(m.Partitions))
	return nil
}

func runQuery(ctx context.Context, cfg *config.Config, sqlText string) error {
	if sqlText == "" {
		return fmt.Errorf("query requires -sql")
	}
	svc, err := query.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	rows, err := svc.ExecuteSQL(ctx, sqlText)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}
