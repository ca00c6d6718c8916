// Package aggregate turns per-date volatility surface partitions into
// weighted cross-sectional aggregates: instruments are filtered for
// liquidity, bucketed by expiry target, extended with forward vols,
// classified into cohorts and reduced to market-cap-weighted means with
// Total rollups on every axis subset.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/karnek/ivhist/internal/classify"
	"github.com/karnek/ivhist/internal/config"
	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/logging"
	"github.com/karnek/ivhist/internal/store"
	"github.com/karnek/ivhist/internal/surface"
)

const weightVega = "vega"

// Aggregator computes aggregate partitions for every surface date not
// yet covered by the aggregate store.
type Aggregator struct {
	cfg        *config.Config
	surfaces   *store.Store[store.SurfaceRow]
	aggregates *store.Store[store.AggRow]
	resolver   *classify.Resolver
	log        *slog.Logger
}

// Summary reports one aggregation run.
type Summary struct {
	mu sync.Mutex

	Processed    int
	Skipped      int
	Failed       map[surface.Date]error
	RowsWritten  int64
	Observations int64
	NoSnapshot   int64
}

func (s *Summary) fail(date surface.Date, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failed == nil {
		s.Failed = make(map[surface.Date]error)
	}
	s.Failed[date] = err
}

func (s *Summary) done(rows int64, obs, noSnap int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	s.RowsWritten += rows
	s.Observations += obs
	s.NoSnapshot += noSnap
}

// New builds an aggregator over the two stores.
func New(cfg *config.Config, surfaces *store.Store[store.SurfaceRow], aggregates *store.Store[store.AggRow], resolver *classify.Resolver) *Aggregator {
	return &Aggregator{
		cfg:        cfg,
		surfaces:   surfaces,
		aggregates: aggregates,
		resolver:   resolver,
		log:        logging.Component("aggregate"),
	}
}

// Run aggregates every pending date. With force set, already-aggregated
// dates are recomputed and replaced. Failures are per date: one bad
// partition does not stop the others, except for fatal store errors
// which abort the run.
func (a *Aggregator) Run(ctx context.Context, force bool) (*Summary, error) {
	summary := &Summary{}

	var pending []surface.Date
	for _, date := range a.surfaces.Index().Dates() {
		if !force && a.aggregates.Index().Contains(date) {
			summary.Skipped++
			continue
		}
		pending = append(pending, date)
	}
	a.log.Info("aggregation starting",
		"pending", len(pending),
		"skipped", summary.Skipped,
		"force", force)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Aggregation.Workers)
	for _, date := range pending {
		g.Go(func() error {
			rows, obs, noSnap, err := a.aggregateDate(ctx, date, force)
			if err != nil {
				if apperrors.IsFatal(err) || ctx.Err() != nil {
					return err
				}
				a.log.Error("date failed", "date", date, "error", err)
				summary.fail(date, err)
				return nil
			}
			summary.done(rows, obs, noSnap)
			a.log.Info("date aggregated", "date", date, "rows", rows, "observations", obs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// aggregateDate computes and commits one aggregate partition.
func (a *Aggregator) aggregateDate(ctx context.Context, date surface.Date, force bool) (rows, obs, noSnap int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, 0, err
	}

	raw, err := a.surfaces.ReadPartition(date)
	if err != nil {
		return 0, 0, 0, err
	}

	f := a.cfg.Filters
	byTicker := make(map[string][]surface.Record)
	for i := range raw {
		rec := store.RowToRecord(&raw[i])
		if !rec.Liquid(f.MinYears, f.MaxYears, f.MaxAtmVol, f.MinContracts, f.MaxVWidth) {
			continue
		}
		byTicker[rec.Ticker] = append(byTicker[rec.Ticker], rec)
	}

	// Tickers are walked in sorted order so the reduction input, and
	// with it any floating point artifact, is identical across runs.
	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	targets := a.cfg.Aggregation.TargetDays
	byVega := a.cfg.Aggregation.WeightField == weightVega

	var joined []classified
	for _, ticker := range tickers {
		buckets := assignBuckets(byTicker[ticker], targets)
		melted := meltTicker(ticker, buckets, targets)
		if len(melted) == 0 {
			continue
		}

		class, ok, err := a.resolver.Resolve(date, ticker)
		if err != nil {
			return 0, 0, 0, err
		}
		if !ok {
			noSnap += int64(len(melted))
			continue
		}
		marketCap, _ := a.resolver.MarketCap(date, ticker)
		for _, o := range melted {
			weight := marketCap
			if byVega {
				weight = o.vega
			}
			joined = append(joined, classified{observation: o, class: class, weight: weight})
		}
	}
	obs = int64(len(joined))

	aggRows := reduce(date, joined)
	out := make([]store.AggRow, len(aggRows))
	for i := range aggRows {
		out[i] = store.AggregateToRow(&aggRows[i])
	}

	if force {
		_, err = a.aggregates.ReplacePartition(date, out)
	} else {
		_, err = a.aggregates.WritePartition(date, out)
	}
	if err != nil {
		return 0, obs, noSnap, err
	}
	return int64(len(out)), obs, noSnap, nil
}
