package provider

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/seera-networks/ISEKAI-comp/pkg/column"
)

// SQLiteProvider serves columns from one table of a SQLite database.
// Columns are fetched lazily, one query per column, and cached for the
// provider's lifetime. Safe for concurrent use: the evaluator fetches
// columns from multiple goroutines.
type SQLiteProvider struct {
	db     *sql.DB
	table  string
	mu     sync.Mutex
	cache  map[string]*column.Column
	logger *slog.Logger
}

// NewSQLite opens the SQLite database at path and serves columns from the
// given table. Use ":memory:" for an in-memory database.
func NewSQLite(path, table string, logger *slog.Logger) (*SQLiteProvider, error) {
	if table == "" {
		return nil, fmt.Errorf("sqlite source requires a table name")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite source: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite source: %w", err)
	}
	logger.Debug("sqlite source opened", "path", path, "table", table)
	return newSQLiteFromDB(db, table, logger), nil
}

// newSQLiteFromDB wraps an existing database handle. Used by NewSQLite
// and by tests that substitute a mock driver.
func newSQLiteFromDB(db *sql.DB, table string, logger *slog.Logger) *SQLiteProvider {
	return &SQLiteProvider{
		db:     db,
		table:  table,
		cache:  make(map[string]*column.Column),
		logger: logger,
	}
}

// quoteIdent quotes a SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Columns lists the table's column names in declaration order.
func (p *SQLiteProvider) Columns(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s LIMIT 0", quoteIdent(p.table)))
	if err != nil {
		return nil, fmt.Errorf("describing table %s: %w", p.table, err)
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading column names: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// GetColumn fetches the named column, scanning every row. SQL NULL maps
// to a null row; the element type is inferred from the scanned values
// (float64 when all are numeric, else string).
func (p *SQLiteProvider) GetColumn(ctx context.Context, name string) (*column.Column, error) {
	p.mu.Lock()
	col, ok := p.cache[name]
	p.mu.Unlock()
	if ok {
		return col, nil
	}

	names, err := p.Columns(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, n := range names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q in table %s", ErrUnknownColumn, name, p.table)
	}

	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s", quoteIdent(name), quoteIdent(p.table)))
	if err != nil {
		return nil, fmt.Errorf("selecting column %q: %w", name, err)
	}
	defer rows.Close()

	var cells []sql.NullString
	allNumeric := true
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning column %q: %w", name, err)
		}
		cell := toNullString(raw)
		if cell.Valid {
			switch raw.(type) {
			case int64, float64:
			default:
				allNumeric = false
			}
		}
		cells = append(cells, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating column %q: %w", name, err)
	}

	col = columnFromCells(name, cells, allNumeric)
	p.mu.Lock()
	p.cache[name] = col
	p.mu.Unlock()
	p.logger.Debug("column loaded", "table", p.table, "column", name, "rows", col.Len())
	return col, nil
}

func toNullString(raw any) sql.NullString {
	switch v := raw.(type) {
	case nil:
		return sql.NullString{}
	case []byte:
		return sql.NullString{String: string(v), Valid: true}
	case int64:
		return sql.NullString{String: fmt.Sprintf("%d", v), Valid: true}
	case float64:
		return sql.NullString{String: fmt.Sprintf("%g", v), Valid: true}
	default:
		return sql.NullString{String: fmt.Sprintf("%v", v), Valid: true}
	}
}

func columnFromCells(name string, cells []sql.NullString, numeric bool) *column.Column {
	valid := make([]bool, len(cells))
	for i, cell := range cells {
		valid[i] = cell.Valid
	}
	if numeric {
		floats := make([]float64, len(cells))
		for i, cell := range cells {
			if cell.Valid {
				// Round-tripped through %d/%g above, always parses.
				f, _ := strconv.ParseFloat(cell.String, 64)
				floats[i] = f
			}
		}
		return column.NewFloat64Nullable(name, floats, valid)
	}
	strs := make([]string, len(cells))
	for i, cell := range cells {
		if cell.Valid {
			strs[i] = cell.String
		}
	}
	return column.NewStringNullable(name, strs, valid)
}

// Close closes the database handle.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}
