// Package archive reads one dated ZIP of tab-separated option-surface
// payloads as a lazy sequence of record batches. Decompression and
// parsing happen incrementally: at no point is a whole payload resident
// in memory, only the batch being assembled.
package archive

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/karnek/ivhist/internal/errors"
	"github.com/karnek/ivhist/internal/surface"
)

// Field names of the raw feed's header row.
const (
	fieldTicker = "ticker_tk"
	fieldDate   = "tradingDate"
	fieldRate   = "rate"
	fieldYears  = "years"
	fieldAtmVol = "atmVol"
	fieldAtmCen = "atmCen"
	fieldVega   = "atmVega"
	fieldSlope  = "slope"
	fieldCCnt   = "cCnt"
	fieldPCnt   = "pCnt"
	fieldVWidth = "vwidth"
)

var requiredFields = []string{
	fieldTicker, fieldDate, fieldRate, fieldYears, fieldAtmVol,
	fieldAtmCen, fieldVega, fieldSlope, fieldCCnt, fieldPCnt, fieldVWidth,
}

// maxLineBytes bounds a single payload line. Feed lines are short; a
// longer one is corrupt.
const maxLineBytes = 1024 * 1024

// Reader streams batches of records from one dated archive. It is a
// finite, non-restartable pull iterator: Next returns batches until
// io.EOF. Not safe for concurrent use.
type Reader struct {
	date      surface.Date
	batchSize int

	zr       *zip.ReadCloser
	payloads []*zip.File

	// Current payload state
	payload io.ReadCloser
	scanner *bufio.Scanner
	columns []string

	validRows int
	badRows   int
	done      bool
}

// Open opens the archive at path. The trading date is taken from the
// file name; an archive with no text payload is rejected immediately.
func Open(path string, batchSize int) (*Reader, error) {
	date, err := surface.DateFromName(path)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var payloads []*zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".txt") {
			payloads = append(payloads, f)
		}
	}
	if len(payloads) == 0 {
		zr.Close()
		return nil, fmt.Errorf("%s: %w", path, apperrors.ErrNoPayload)
	}
	sort.Slice(payloads, func(i, j int) bool { return payloads[i].Name < payloads[j].Name })

	return &Reader{
		date:      date,
		batchSize: batchSize,
		zr:        zr,
		payloads:  payloads,
	}, nil
}

// Date returns the archive's trading date key.
func (r *Reader) Date() surface.Date {
	return r.date
}

// ValidRows returns the number of valid records produced so far.
func (r *Reader) ValidRows() int {
	return r.validRows
}

// BadRows returns the number of malformed rows skipped so far.
func (r *Reader) BadRows() int {
	return r.badRows
}

// Next returns the next batch of at most batchSize records. It returns
// io.EOF when the archive is exhausted, and ErrArchiveEmpty when
// exhaustion is reached without a single valid row.
func (r *Reader) Next(ctx context.Context) ([]surface.Record, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]surface.Record, 0, r.batchSize)
	for len(batch) < r.batchSize {
		line, ok, err := r.nextLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			r.done = true
			if r.validRows == 0 {
				return nil, apperrors.ErrArchiveEmpty
			}
			if len(batch) == 0 {
				return nil, io.EOF
			}
			return batch, nil
		}

		rec, ok := r.parseRow(line)
		if !ok {
			r.badRows++
			continue
		}
		r.validRows++
		batch = append(batch, rec)
	}

	return batch, nil
}

// nextLine advances to the next data line, crossing payload boundaries
// and consuming each payload's header row.
func (r *Reader) nextLine() (string, bool, error) {
	for {
		if r.scanner == nil {
			if len(r.payloads) == 0 {
				return "", false, nil
			}
			f := r.payloads[0]
			r.payloads = r.payloads[1:]

			rc, err := f.Open()
			if err != nil {
				return "", false, fmt.Errorf("open payload %s: %w", f.Name, err)
			}
			r.payload = rc

			sc := bufio.NewScanner(rc)
			sc.Buffer(make([]byte, 64*1024), maxLineBytes)
			if !sc.Scan() {
				// Empty payload; move on.
				if err := sc.Err(); err != nil {
					rc.Close()
					return "", false, fmt.Errorf("read payload %s: %w", f.Name, err)
				}
				rc.Close()
				continue
			}
			r.columns = strings.Split(strings.TrimRight(sc.Text(), "\r\n"), "\t")
			r.scanner = sc
		}

		if r.scanner.Scan() {
			return r.scanner.Text(), true, nil
		}
		if err := r.scanner.Err(); err != nil {
			r.closePayload()
			return "", false, fmt.Errorf("read payload: %w", err)
		}
		r.closePayload()
	}
}

func (r *Reader) closePayload() {
	if r.payload != nil {
		r.payload.Close()
		r.payload = nil
	}
	r.scanner = nil
	r.columns = nil
}

// parseRow converts one tab-separated line into a record. A row with
// the wrong column count, a non-numeric required field, or a trading
// date other than the archive's is malformed.
func (r *Reader) parseRow(line string) (surface.Record, bool) {
	values := strings.Split(strings.TrimRight(line, "\r"), "\t")
	if len(values) != len(r.columns) {
		return surface.Record{}, false
	}

	fields := make(map[string]string, len(r.columns))
	for i, name := range r.columns {
		fields[name] = values[i]
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return surface.Record{}, false
		}
	}

	ticker := strings.TrimSpace(fields[fieldTicker])
	if ticker == "" {
		return surface.Record{}, false
	}

	date, err := parseTradingDate(fields[fieldDate])
	if err != nil || date != r.date {
		return surface.Record{}, false
	}

	rec := surface.Record{Ticker: ticker, Date: date}
	numeric := []struct {
		name string
		dst  *float64
	}{
		{fieldRate, &rec.Rate},
		{fieldYears, &rec.Years},
		{fieldAtmVol, &rec.AtmVol},
		{fieldAtmCen, &rec.AtmCen},
		{fieldVega, &rec.Vega},
		{fieldSlope, &rec.Slope},
		{fieldCCnt, &rec.CallCount},
		{fieldPCnt, &rec.PutCount},
		{fieldVWidth, &rec.VWidth},
	}
	for _, n := range numeric {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[n.name]), 64)
		if err != nil {
			return surface.Record{}, false
		}
		*n.dst = v
	}

	return rec, true
}

// parseTradingDate accepts the date field with or without a time suffix.
func parseTradingDate(s string) (surface.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(surface.DateLayout) {
		s = s[:len(surface.DateLayout)]
	}
	return surface.ParseDate(s)
}

// Close releases the underlying archive.
func (r *Reader) Close() error {
	r.closePayload()
	r.done = true
	return r.zr.Close()
}
