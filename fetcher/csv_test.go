package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs/trading"
)

func TestReadCloses(t *testing.T) {
	in := "date,close\n2024-03-05, 11.5\n20240304,11\n"
	points, err := ReadCloses(strings.NewReader(in), trading.CST)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, cstDay(2024, 3, 4), points[0].Time)
	assert.Equal(t, 11.5, points[1].Close)

	_, err = ReadCloses(strings.NewReader("2024-03-04,1\nnot-a-date,2\n"), trading.CST)
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadCloses(strings.NewReader("2024-03-04,abc\n"), trading.CST)
	assert.ErrorContains(t, err, "invalid close")

	_, err = ReadCloses(strings.NewReader("2024-03-04\n"), trading.CST)
	assert.Error(t, err)
}

func TestCSVProvider(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GLD.csv"),
		[]byte("date,close\n2024-03-01,1\n2024-03-04,2\n2024-03-05,3\n"), 0o644))

	p := NewCSVProvider(dir)
	s, err := p.FetchCloses(context.Background(), "GLD", cstDay(2024, 3, 2), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "GLD", s.Symbol)
	require.Len(t, s.Points, 2)
	assert.Equal(t, 2.0, s.Points[0].Close)

	_, err = p.FetchCloses(context.Background(), "GDX", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	// path components in the symbol never escape the directory
	_, err = p.FetchCloses(context.Background(), "../GLD", time.Time{}, time.Time{})
	assert.NoError(t, err)
}
