// Package duckdb converts CSV outputs to Parquet with an in-process
// DuckDB instance.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/okian/motorgen/pkg/logger"
)

// ErrNotConnected is returned when the exporter was closed.
var ErrNotConnected = errors.New("duckdb connection not established")

// Exporter writes Parquet copies of CSV tables.
type Exporter struct {
	db  *sql.DB
	log logger.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter's logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// Open starts an in-memory DuckDB database.
func Open(ctx context.Context, opts ...Option) (*Exporter, error) {
	e := &Exporter{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	e.db = db
	return e, nil
}

// Close releases the database.
func (e *Exporter) Close() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

// ParquetPath returns the Parquet file name next to a CSV file.
func ParquetPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".parquet"
}

// Export copies the CSV at src into a Parquet file at dst. Every column
// is kept as text so identifiers keep their leading zeros.
func (e *Exporter) Export(ctx context.Context, src, dst string) error {
	if e.db == nil {
		return ErrNotConnected
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", src, err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dst, err)
	}
	query := fmt.Sprintf( //nolint:gosec // paths come from the output directory
		"COPY (SELECT * FROM read_csv_auto(%s, header=true, all_varchar=true)) TO %s (FORMAT PARQUET)",
		quote(absSrc), quote(absDst))
	if _, err := e.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to export %s: %w", filepath.Base(src), err)
	}
	e.log.Debug(ctx, "parquet written", logger.String("path", absDst))
	return nil
}

// ExportAll writes a Parquet file beside each CSV and returns the paths.
func (e *Exporter) ExportAll(ctx context.Context, csvPaths ...string) ([]string, error) {
	out := make([]string, 0, len(csvPaths))
	for _, p := range csvPaths {
		dst := ParquetPath(p)
		if err := e.Export(ctx, p, dst); err != nil {
			return out, err
		}
		out = append(out, dst)
	}
	return out, nil
}

// Count returns the number of rows in a Parquet file.
func (e *Exporter) Count(ctx context.Context, path string) (int64, error) {
	if e.db == nil {
		return 0, ErrNotConnected
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	var n int64
	query := "SELECT COUNT(*) FROM read_parquet(" + quote(abs) + ")" //nolint:gosec // local path
	if err := e.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", filepath.Base(path), err)
	}
	return n, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
