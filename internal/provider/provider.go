// Package provider supplies tabular columns to the evaluator. It defines
// the provider SPI and ships two implementations: CSV files and SQLite
// tables.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seera-networks/ISEKAI-comp/pkg/column"
)

// ErrUnknownColumn reports a request for a column the source does not
// have.
var ErrUnknownColumn = errors.New("unknown column")

// Config holds the configuration for opening a tabular source.
type Config struct {
	// Type specifies the source type ("csv" or "sqlite").
	Type string

	// Path is the file path of the source (CSV file or SQLite database).
	// Use ":memory:" for an in-memory SQLite database.
	Path string

	// Table is the table to read, for database-backed sources.
	Table string
}

// Provider exposes named, typed, nullable columns from one tabular
// source. Implementations are read-only; returned columns may be shared
// freely across evaluations.
type Provider interface {
	// Columns lists the column names available from the source.
	Columns(ctx context.Context) ([]string, error)

	// GetColumn fetches the named column. Returns ErrUnknownColumn when
	// the source has no such column.
	GetColumn(ctx context.Context, name string) (*column.Column, error)

	// Close releases source resources.
	Close() error
}

// New creates a provider for the configured source type.
func New(cfg Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch cfg.Type {
	case "csv":
		return NewCSV(cfg.Path, logger)
	case "sqlite":
		return NewSQLite(cfg.Path, cfg.Table, logger)
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
