package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs/model"
)

func TestGuardedTripsOnUpstreamFailures(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	next := ProviderFunc(func(context.Context, string, time.Time, time.Time) (model.PriceSeries, error) {
		calls++
		return model.PriceSeries{}, boom
	})
	g := NewGuarded(next, GuardOptions{RatePerSecond: 1000, Burst: 10, FailureThreshold: 2, OpenTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := g.FetchCloses(context.Background(), "GLD", time.Time{}, time.Time{})
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.FetchCloses(context.Background(), "GLD", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestGuardedIgnoresUnknownSymbols(t *testing.T) {
	next := ProviderFunc(func(_ context.Context, symbol string, _, _ time.Time) (model.PriceSeries, error) {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	})
	g := NewGuarded(next, GuardOptions{RatePerSecond: 1000, Burst: 10, FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		_, err := g.FetchCloses(context.Background(), "NOPE", time.Time{}, time.Time{})
		assert.ErrorIs(t, err, ErrUnknownSymbol)
	}
	assert.Equal(t, gobreaker.StateClosed, g.State())
}

func TestGuardedIgnoresCallerCancellation(t *testing.T) {
	errs := []error{context.DeadlineExceeded, context.Canceled, fmt.Errorf("fetch GLD: %w", context.DeadlineExceeded)}
	i := 0
	next := ProviderFunc(func(context.Context, string, time.Time, time.Time) (model.PriceSeries, error) {
		err := errs[i%len(errs)]
		i++
		return model.PriceSeries{}, err
	})
	g := NewGuarded(next, GuardOptions{RatePerSecond: 1000, Burst: 10, FailureThreshold: 1, OpenTimeout: time.Hour})

	for range errs {
		_, err := g.FetchCloses(context.Background(), "GLD", time.Time{}, time.Time{})
		assert.Error(t, err)
		assert.Equal(t, gobreaker.StateClosed, g.State())
	}
	assert.Equal(t, len(errs), i)
}

func TestGuardedPassesThrough(t *testing.T) {
	next := ProviderFunc(func(_ context.Context, symbol string, _, _ time.Time) (model.PriceSeries, error) {
		return model.PriceSeries{Symbol: symbol, Points: []model.ClosePoint{{Time: cstDay(2024, 1, 2), Close: 1}}}, nil
	})
	g := NewGuarded(next, GuardOptions{})

	s, err := g.FetchCloses(context.Background(), "GLD", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "GLD", s.Symbol)
	assert.Len(t, s.Points, 1)
}

func TestGuardedHonoursContext(t *testing.T) {
	g := NewGuarded(ProviderFunc(func(context.Context, string, time.Time, time.Time) (model.PriceSeries, error) {
		t.Fatal("limiter should reject before calling upstream")
		return model.PriceSeries{}, nil
	}), GuardOptions{RatePerSecond: 0.001, Burst: 1})

	// drain the single token
	g.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := g.FetchCloses(ctx, "GLD", time.Time{}, time.Time{})
	assert.Error(t, err)
}
