package backtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs/fetcher"
	"pairs/model"
	"pairs/trading"
)

type fakeProvider struct {
	mu     sync.Mutex
	series map[string]model.PriceSeries
	calls  []string
	start  time.Time
	end    time.Time
}

func (f *fakeProvider) FetchCloses(_ context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol)
	f.start, f.end = start, end
	s, ok := f.series[symbol]
	if !ok {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", fetcher.ErrUnknownSymbol, symbol)
	}
	return s, nil
}

func newFakeProvider() *fakeProvider {
	a, b := seriesFromSpread([]float64{10, 10, 10, 16, 10, 10, 9, 11, 10})
	short, _ := seriesFromSpread([]float64{1, 2})
	return &fakeProvider{series: map[string]model.PriceSeries{
		"AAA":   a,
		"BBB":   b,
		"SHORT": short,
	}}
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 15, 10, 30, 0, 0, trading.CST)
}

func TestRunnerWindow(t *testing.T) {
	r := NewRunner(nil).WithClock(fixedClock)

	cfg := DefaultRunConfig()
	cfg.Days = 10
	start, end := r.Window(cfg)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, trading.CST), end)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, trading.CST), start)

	cfg.Start = time.Date(2024, 1, 2, 0, 0, 0, 0, trading.CST)
	start, _ = r.Window(cfg)
	assert.Equal(t, cfg.Start, start)
}

func TestRunnerRunIsolatesPairFailures(t *testing.T) {
	fp := newFakeProvider()
	var logs bytes.Buffer
	r := NewRunner(fp).WithClock(fixedClock).WithLogger(zerolog.New(&logs))

	cfg := DefaultRunConfig()
	cfg.Params = testParams(3)
	cfg.Pairs = []Pair{
		{Name: "good", A: "AAA", B: "BBB"},
		{Name: "unknown", A: "AAA", B: "NOPE"},
		{Name: "short", A: "SHORT", B: "SHORT"},
	}

	results, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, results, 3)

	good := results[0]
	assert.Empty(t, good.Errors)
	assert.Equal(t, "good", good.Pair.Name)
	require.Len(t, good.Trades, 1)

	require.Len(t, results[1].Errors, 1)
	assert.Contains(t, results[1].Errors[0], "NOPE")
	assert.Contains(t, results[1].Errors[0], ErrUpstreamData.Error())

	require.Len(t, results[2].Errors, 1)
	assert.Contains(t, results[2].Errors[0], ErrInsufficientData.Error())

	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, trading.CST), fp.end)
	assert.Contains(t, logs.String(), `"pair":"good"`)
}

func TestRunnerRunOneWrapsUpstreamErrors(t *testing.T) {
	r := NewRunner(newFakeProvider()).WithLogger(zerolog.Nop())

	_, err := r.RunOne(context.Background(), Pair{A: "AAA", B: "NOPE"}, time.Time{}, time.Time{}, testParams(3))
	require.ErrorIs(t, err, ErrUpstreamData)
	assert.ErrorIs(t, err, fetcher.ErrUnknownSymbol)
}

func TestRunnerRunOneStopsOnCancel(t *testing.T) {
	p := fetcher.ProviderFunc(func(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
		return model.PriceSeries{}, ctx.Err()
	})
	r := NewRunner(p).WithLogger(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RunOne(ctx, Pair{A: "AAA", B: "BBB"}, time.Time{}, time.Time{}, testParams(3))
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUpstreamData)
}

func TestRunnerRunRejectsEmptyConfig(t *testing.T) {
	r := NewRunner(newFakeProvider())

	_, err := r.Run(context.Background(), DefaultRunConfig())
	assert.Error(t, err)

	cfg := DefaultRunConfig()
	cfg.Pairs = []Pair{{A: "AAA", B: "BBB"}}
	cfg.Params.Window = -1
	_, err = r.Run(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestWriteResults(t *testing.T) {
	r := NewRunner(newFakeProvider()).WithClock(fixedClock).WithLogger(zerolog.Nop())
	cfg := DefaultRunConfig()
	cfg.Params = testParams(3)
	cfg.Pairs = []Pair{{Name: "good", A: "AAA", B: "BBB"}, {A: "AAA", B: "NOPE"}}

	results, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, WriteResultsText(&text, results))
	out := text.String()
	assert.Contains(t, out, "PAIR")
	assert.Contains(t, out, "SHARPE")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "AAA/NOPE")
	assert.Contains(t, out, "ERROR ")
	assert.Contains(t, out, "2025-01-04 @ 16.0000 -> 2025-01-09 @ 10.0000  pnl=-6.0005")

	var js bytes.Buffer
	require.NoError(t, WriteResultsJSON(&js, results))
	var decoded []PairResult
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, results[0].Trades, decoded[0].Trades)
	assert.Nil(t, decoded[0].Summary.SharpeRatio)
	assert.NotEmpty(t, decoded[1].Errors)
}

// failingWriter accepts ok writes, then fails every later one.
type failingWriter struct {
	ok     int
	writes int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.ok {
		return 0, errDiskFull
	}
	return len(p), nil
}

func TestWriteResultsTextReturnsWriteError(t *testing.T) {
	r := NewRunner(newFakeProvider()).WithClock(fixedClock).WithLogger(zerolog.Nop())
	cfg := DefaultRunConfig()
	cfg.Params = testParams(3)
	cfg.Pairs = []Pair{{Name: "good", A: "AAA", B: "BBB"}}
	results, err := r.Run(context.Background(), cfg)
	require.NoError(t, err)

	// header fails
	w := &failingWriter{}
	assert.ErrorIs(t, WriteResultsText(w, results), errDiskFull)
	assert.Equal(t, 1, w.writes)

	// a later row fails and nothing more is attempted
	w = &failingWriter{ok: 2}
	assert.ErrorIs(t, WriteResultsText(w, results), errDiskFull)
	assert.Equal(t, 3, w.writes)
}
