package provider

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seera-networks/ISEKAI-comp/pkg/column"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCSV_TypeInference(t *testing.T) {
	path := writeCSV(t, "num,flag,tag\n1.5,true,alpha\n2,false,beta\n3,true,gamma\n")

	p, err := NewCSV(path, discard())
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()

	num, err := p.GetColumn(ctx, "num")
	require.NoError(t, err)
	assert.Equal(t, column.Float64, num.Type())
	assert.Equal(t, 1.5, num.Float(0))

	flag, err := p.GetColumn(ctx, "flag")
	require.NoError(t, err)
	assert.Equal(t, column.Bool, flag.Type())
	assert.True(t, flag.Bool(0))

	tag, err := p.GetColumn(ctx, "tag")
	require.NoError(t, err)
	assert.Equal(t, column.String, tag.Type())
	assert.Equal(t, "beta", tag.Str(1))
}

func TestCSV_EmptyCellIsNull(t *testing.T) {
	path := writeCSV(t, "x,y\n1,a\n,b\n3,c\n")

	p, err := NewCSV(path, discard())
	require.NoError(t, err)

	col, err := p.GetColumn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, column.Float64, col.Type())
	assert.False(t, col.IsNull(0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, 2, col.NonNullCount())
}

func TestCSV_NaNLiteralIsNotNull(t *testing.T) {
	path := writeCSV(t, "x\n1\nNaN\n3\n")

	p, err := NewCSV(path, discard())
	require.NoError(t, err)

	col, err := p.GetColumn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, column.Float64, col.Type())
	assert.False(t, col.IsNull(1))
	assert.True(t, col.IsNaN(1))
}

func TestCSV_MixedColumnFallsBackToString(t *testing.T) {
	path := writeCSV(t, "x\n1\ntwo\n3\n")

	p, err := NewCSV(path, discard())
	require.NoError(t, err)

	col, err := p.GetColumn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, column.String, col.Type())
	assert.Equal(t, "two", col.Str(1))
}

func TestCSV_UnknownColumn(t *testing.T) {
	path := writeCSV(t, "x\n1\n")

	p, err := NewCSV(path, discard())
	require.NoError(t, err)

	_, err = p.GetColumn(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestCSV_ColumnsKeepHeaderOrder(t *testing.T) {
	path := writeCSV(t, "c,a,b\n1,2,3\n")

	p, err := NewCSV(path, discard())
	require.NoError(t, err)

	names, err := p.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestCSV_MissingFile(t *testing.T) {
	_, err := NewCSV(filepath.Join(t.TempDir(), "nope.csv"), discard())
	assert.Error(t, err)
}

func TestCSV_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "x,y\n")

	p, err := NewCSV(path, discard())
	require.NoError(t, err)

	col, err := p.GetColumn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 0, col.Len())
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(Config{Type: "parquet", Path: "x"}, nil)
	assert.Error(t, err)
}
