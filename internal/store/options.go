package store

import (
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/compress/gzip"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Options configures partition files.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// CompressionLevel for algorithms that support it (zstd: 1-22)
	CompressionLevel int

	// RowGroupSize is the target number of rows per row group
	RowGroupSize int

	// PageSize is the target page size in bytes
	PageSize int
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default partition options.
func DefaultOptions() Options {
	return Options{
		Compression:      CompressionZstd,
		CompressionLevel: 3,
		RowGroupSize:     100000,
		PageSize:         1024 * 1024, // 1MB
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// writerOptions translates Options into parquet writer options.
func (o Options) writerOptions() []parquet.WriterOption {
	opts := []parquet.WriterOption{
		parquet.Compression(o.codec()),
	}
	if o.RowGroupSize > 0 {
		opts = append(opts, parquet.MaxRowsPerRowGroup(int64(o.RowGroupSize)))
	}
	if o.PageSize > 0 {
		opts = append(opts, parquet.PageBufferSize(o.PageSize))
	}
	return opts
}

// codec returns the parquet-go compression codec, at the configured
// level where the algorithm supports one.
func (o Options) codec() compress.Codec {
	switch o.Compression {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &zstd.Codec{Level: zstdLevel(o.CompressionLevel)}
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &gzip.Codec{Level: gzipLevel(o.CompressionLevel)}
	default:
		return &parquet.Uncompressed
	}
}

// zstdLevel maps the 1-22 zstd scale onto the encoder speed tiers.
func zstdLevel(level int) zstd.Level {
	switch {
	case level <= 0:
		return zstd.DefaultLevel
	case level <= 2:
		return zstd.SpeedFastest
	case level <= 5:
		return zstd.SpeedDefault
	case level <= 10:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func gzipLevel(level int) int {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		return gzip.DefaultCompression
	}
	return level
}
