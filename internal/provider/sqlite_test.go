package provider

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seera-networks/ISEKAI-comp/pkg/column"
)

// seedSQLite creates a database file with one populated table.
func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE obs (x REAL, tag TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO obs VALUES (1.5, 'a'), (NULL, 'b'), (3.0, NULL)`)
	require.NoError(t, err)
	return path
}

func TestSQLite_ReadsColumns(t *testing.T) {
	path := seedSQLite(t)

	p, err := NewSQLite(path, "obs", discard())
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()

	names, err := p.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "tag"}, names)

	x, err := p.GetColumn(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, column.Float64, x.Type())
	assert.Equal(t, 1.5, x.Float(0))
	assert.True(t, x.IsNull(1))
	assert.Equal(t, 3.0, x.Float(2))

	tag, err := p.GetColumn(ctx, "tag")
	require.NoError(t, err)
	assert.Equal(t, column.String, tag.Type())
	assert.Equal(t, "b", tag.Str(1))
	assert.True(t, tag.IsNull(2))
}

func TestSQLite_UnknownColumn(t *testing.T) {
	path := seedSQLite(t)

	p, err := NewSQLite(path, "obs", discard())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.GetColumn(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSQLite_ColumnCached(t *testing.T) {
	path := seedSQLite(t)

	p, err := NewSQLite(path, "obs", discard())
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	first, err := p.GetColumn(ctx, "x")
	require.NoError(t, err)
	second, err := p.GetColumn(ctx, "x")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSQLite_ConcurrentFetches(t *testing.T) {
	path := seedSQLite(t)

	p, err := NewSQLite(path, "obs", discard())
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	names := []string{"x", "tag", "x", "tag"}

	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = p.GetColumn(ctx, name)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestSQLite_RequiresTableName(t *testing.T) {
	_, err := NewSQLite(":memory:", "", discard())
	assert.Error(t, err)
}

func TestSQLite_MockedDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := newSQLiteFromDB(db, "obs", discard())

	mock.ExpectQuery(`SELECT \* FROM "obs" LIMIT 0`).
		WillReturnRows(sqlmock.NewRows([]string{"x"}))
	mock.ExpectQuery(`SELECT "x" FROM "obs"`).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).
			AddRow(int64(2)).
			AddRow(nil).
			AddRow(4.5))

	col, err := p.GetColumn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, column.Float64, col.Type())
	assert.Equal(t, 2.0, col.Float(0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, 4.5, col.Float(2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_MockedQuotedIdentifiers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := newSQLiteFromDB(db, `odd"name`, discard())

	mock.ExpectQuery(`SELECT \* FROM "odd""name" LIMIT 0`).
		WillReturnRows(sqlmock.NewRows([]string{"x"}))

	names, err := p.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
