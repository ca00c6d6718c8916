// Package query provides read-only SQL access over the committed
// Parquet partitions through an in-memory DuckDB instance. It never
// writes: the stores own all mutation.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/karnek/ivhist/internal/config"
	"github.com/karnek/ivhist/internal/store"
	"github.com/karnek/ivhist/internal/surface"
)

// Service answers queries over the surface and aggregate directories.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config
	db  *sql.DB

	stats Stats
}

// Stats holds query counters.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// AggregateQuery selects aggregate rows. Empty string filters match
// everything; dates are inclusive.
type AggregateQuery struct {
	StartDate    surface.Date
	EndDate      surface.Date
	Sector       string
	SizeCategory string
	Style        string
	ExpiryLabel  string
	ValueType    string
	Limit        int
}

// SurfaceQuery selects raw surface rows for one ticker over a date
// range.
type SurfaceQuery struct {
	StartDate surface.Date
	EndDate   surface.Date
	Ticker    string
	Limit     int
}

// New opens the query service over an in-memory DuckDB database.
func New(cfg *config.Config) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if cfg.Query.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit='%s'", cfg.Query.MemoryLimit)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}

	return &Service{cfg: cfg, db: db}, nil
}

// Close releases the DuckDB instance.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Aggregates queries the aggregate partitions.
func (s *Service) Aggregates(ctx context.Context, q AggregateQuery) ([]surface.AggregateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := filepath.Join(s.cfg.AggregateDir(), "*"+store.PartitionExt)

	query := `
		SELECT
			trading_date, gics_sector, size_category, style,
			expiry_label, value_type,
			weighted_value, total_value, contributing_count
		FROM read_parquet($1)
		WHERE trading_date >= $2
		  AND trading_date <= $3
		  AND ($4 = '' OR gics_sector = $4)
		  AND ($5 = '' OR size_category = $5)
		  AND ($6 = '' OR style = $6)
		  AND ($7 = '' OR expiry_label = $7)
		  AND ($8 = '' OR value_type = $8)
		ORDER BY trading_date, gics_sector, size_category, style, expiry_label, value_type
	`

	rows, err := s.db.QueryContext(ctx, query,
		pattern,
		string(q.StartDate), string(q.EndDate),
		q.Sector, q.SizeCategory, q.Style, q.ExpiryLabel, q.ValueType,
	)
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	results, err := s.scanAggregates(rows, s.limit(q.Limit))
	if err != nil {
		s.stats.Errors++
		return nil, err
	}
	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(results))
	return results, nil
}

// Surfaces queries the raw surface partitions for one ticker.
func (s *Service) Surfaces(ctx context.Context, q SurfaceQuery) ([]surface.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := filepath.Join(s.cfg.SurfaceDir(), "*"+store.PartitionExt)

	query := `
		SELECT
			ticker, trading_date, rate, years,
			atm_vol, atm_cen, atm_vega, slope,
			c_cnt, p_cnt, vwidth
		FROM read_parquet($1)
		WHERE ticker = $2
		  AND trading_date >= $3
		  AND trading_date <= $4
		ORDER BY trading_date, years
	`

	rows, err := s.db.QueryContext(ctx, query,
		pattern, q.Ticker, string(q.StartDate), string(q.EndDate))
	if err != nil {
		s.stats.Errors++
		return nil, fmt.Errorf("query surfaces: %w", err)
	}
	defer rows.Close()

	limit := s.limit(q.Limit)
	var results []surface.Record
	for rows.Next() {
		var r surface.Record
		var date string
		err := rows.Scan(
			&r.Ticker, &date, &r.Rate, &r.Years,
			&r.AtmVol, &r.AtmCen, &r.Vega, &r.Slope,
			&r.CallCount, &r.PutCount, &r.VWidth,
		)
		if err != nil {
			s.stats.Errors++
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Date = surface.Date(date)
		results = append(results, r)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		s.stats.Errors++
		return nil, err
	}
	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(results))
	return results, nil
}

func (s *Service) scanAggregates(rows *sql.Rows, limit int) ([]surface.AggregateRow, error) {
	var results []surface.AggregateRow
	for rows.Next() {
		var r surface.AggregateRow
		var date string
		var weighted sql.NullFloat64
		err := rows.Scan(
			&date, &r.Sector, &r.SizeCategory, &r.Style,
			&r.ExpiryLabel, &r.ValueType,
			&weighted, &r.TotalValue, &r.ContributingCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Date = surface.Date(date)
		if weighted.Valid {
			r.WeightedValue = weighted.Float64
			r.Defined = true
		}
		results = append(results, r)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, rows.Err()
}

// limit resolves a per-query limit against the configured cap.
func (s *Service) limit(requested int) int {
	max := s.cfg.Query.MaxRows
	if requested <= 0 {
		return max
	}
	if max > 0 && requested > max {
		return max
	}
	return requested
}

// ExecuteSQL runs a raw ad-hoc query. Useful for exploration; the
// per-query row cap still applies.
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.stats.Errors++
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	limit := s.cfg.Query.MaxRows
	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(results))
	return results, rows.Err()
}

// Stats returns a copy of the query counters.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
