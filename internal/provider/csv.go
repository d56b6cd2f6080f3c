package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/seera-networks/ISEKAI-comp/pkg/column"
)

// CSVProvider serves columns from one CSV file. The whole file is parsed
// on open; column types are inferred per column (float64, then bool, else
// string). An empty cell is null; the literal "NaN" is a valid float64
// NaN, distinct from null.
type CSVProvider struct {
	path   string
	cols   map[string]*column.Column
	names  []string
	logger *slog.Logger
}

// NewCSV opens and parses the CSV file at path.
func NewCSV(path string, logger *slog.Logger) (*CSVProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv source: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv source: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv source %s has no header row", path)
	}

	header := records[0]
	rows := records[1:]
	p := &CSVProvider{
		path:   path,
		cols:   make(map[string]*column.Column, len(header)),
		names:  header,
		logger: logger,
	}
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		p.cols[name] = inferColumn(name, cells)
	}
	logger.Debug("csv source loaded", "path", path, "columns", len(header), "rows", len(rows))
	return p, nil
}

// inferColumn picks the narrowest element type that fits every non-empty
// cell of the column.
func inferColumn(name string, cells []string) *column.Column {
	valid := make([]bool, len(cells))
	for i, cell := range cells {
		valid[i] = cell != ""
	}

	floats := make([]float64, len(cells))
	isFloat := true
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		if cell == "NaN" {
			floats[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			isFloat = false
			break
		}
		floats[i] = f
	}
	if isFloat {
		return column.NewFloat64Nullable(name, floats, valid)
	}

	bools := make([]bool, len(cells))
	isBool := true
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		b, err := strconv.ParseBool(cell)
		if err != nil {
			isBool = false
			break
		}
		bools[i] = b
	}
	if isBool {
		return column.NewBoolNullable(name, bools, valid)
	}

	strs := make([]string, len(cells))
	for i, cell := range cells {
		if valid[i] {
			strs[i] = cell
		}
	}
	return column.NewStringNullable(name, strs, valid)
}

// Columns lists the header names in file order.
func (p *CSVProvider) Columns(_ context.Context) ([]string, error) {
	return append([]string(nil), p.names...), nil
}

// GetColumn returns the named column.
func (p *CSVProvider) GetColumn(_ context.Context, name string) (*column.Column, error) {
	col, ok := p.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownColumn, name, p.path)
	}
	return col, nil
}

// Close is a no-op; the file is fully parsed on open.
func (p *CSVProvider) Close() error { return nil }
