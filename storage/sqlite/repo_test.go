package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs/backtest"
	"pairs/storage"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "nested", "pairs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func result(name string, total float64) backtest.PairResult {
	return backtest.PairResult{
		Pair:    backtest.Pair{Name: name, A: name + "-a", B: name + "-b"},
		Params:  backtest.DefaultParams(),
		Entries: []backtest.TradeEvent{},
		Exits:   []backtest.TradeEvent{},
		Trades:  []backtest.ClosedTrade{},
		Summary: backtest.PerformanceSummary{
			CumulativeReturns: []float64{},
			PeriodicReturns:   []float64{},
			TotalReturn:       total,
			NoTrades:          true,
		},
	}
}

func TestRepoSaveGet(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	run := storage.NewRun(result("gold", 0), time.UnixMilli(1700000000000))
	require.NoError(t, r.SaveRun(ctx, run))

	got, err := r.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.Result, got.Result)

	_, err = r.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepoSaveIsUpsert(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	run := storage.NewRun(result("gold", 0), time.UnixMilli(1700000000000))
	require.NoError(t, r.SaveRun(ctx, run))
	run.Result.Summary.TotalReturn = 2.5
	require.NoError(t, r.SaveRun(ctx, run))

	got, err := r.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Result.Summary.TotalReturn)

	list, err := r.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepoListNewestFirst(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	base := time.UnixMilli(1700000000000)
	for i, name := range []string{"a", "b", "c"} {
		run := storage.NewRun(result(name, float64(i)), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, r.SaveRun(ctx, run))
	}

	list, err := r.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Result.Pair.Name)
	assert.Equal(t, "b", list[1].Result.Pair.Name)

	empty := newRepo(t)
	list, err = empty.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
