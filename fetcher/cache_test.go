package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs/model"
)

func cacheSeries() model.PriceSeries {
	return model.PriceSeries{Symbol: "GLD", Points: []model.ClosePoint{
		{Time: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Close: 190.5},
		{Time: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Close: 191.25},
	}}
}

func TestRedisCacheKey(t *testing.T) {
	c := NewRedisCache(nil, nil, "", time.Hour)
	assert.Equal(t, "pairs:closes:GLD:20240301:-", c.Key("GLD", cstDay(2024, 3, 1), time.Time{}))
}

func TestRedisCacheMissFillsCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	want := cacheSeries()
	calls := 0
	next := ProviderFunc(func(context.Context, string, time.Time, time.Time) (model.PriceSeries, error) {
		calls++
		return want, nil
	})
	c := NewRedisCache(db, next, "test", 6*time.Hour)
	key := c.Key("GLD", cstDay(2024, 3, 1), cstDay(2024, 3, 5))
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, string(raw), 6*time.Hour).SetVal("OK")

	got, err := c.FetchCloses(context.Background(), "GLD", cstDay(2024, 3, 1), cstDay(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	want := cacheSeries()
	next := ProviderFunc(func(context.Context, string, time.Time, time.Time) (model.PriceSeries, error) {
		t.Fatal("upstream called on cache hit")
		return model.PriceSeries{}, nil
	})
	c := NewRedisCache(db, next, "test", time.Hour)
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	key := c.Key("GLD", time.Time{}, time.Time{})
	mock.ExpectGet(key).SetVal(string(raw))

	got, err := c.FetchCloses(context.Background(), "GLD", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheFallsBackWhenRedisFails(t *testing.T) {
	db, mock := redismock.NewClientMock()
	want := cacheSeries()
	next := ProviderFunc(func(context.Context, string, time.Time, time.Time) (model.PriceSeries, error) {
		return want, nil
	})
	c := NewRedisCache(db, next, "test", time.Hour)
	key := c.Key("GLD", time.Time{}, time.Time{})
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, string(raw), time.Hour).SetErr(errors.New("connection refused"))

	got, err := c.FetchCloses(context.Background(), "GLD", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisCacheDoesNotStoreErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	next := ProviderFunc(func(_ context.Context, symbol string, _, _ time.Time) (model.PriceSeries, error) {
		return model.PriceSeries{}, ErrUnknownSymbol
	})
	c := NewRedisCache(db, next, "test", time.Hour)
	mock.ExpectGet(c.Key("NOPE", time.Time{}, time.Time{})).RedisNil()

	_, err := c.FetchCloses(context.Background(), "NOPE", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrUnknownSymbol)
	assert.NoError(t, mock.ExpectationsWereMet())
}
