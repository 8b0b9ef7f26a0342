package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceSeriesBetween(t *testing.T) {
	d := func(i int) time.Time { return time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC) }
	s := PriceSeries{Symbol: "GLD", Points: []ClosePoint{{d(1), 1}, {d(2), 2}, {d(3), 3}, {d(4), 4}}}

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, d(1), s.First())
	assert.Equal(t, d(4), s.Last())

	sub := s.Between(d(2), d(3))
	assert.Equal(t, "GLD", sub.Symbol)
	assert.Equal(t, []ClosePoint{{d(2), 2}, {d(3), 3}}, sub.Points)

	assert.Len(t, s.Between(time.Time{}, d(2)).Points, 2)
	assert.Len(t, s.Between(d(3), time.Time{}).Points, 2)

	var empty PriceSeries
	assert.True(t, empty.First().IsZero())
	assert.True(t, empty.Last().IsZero())
}
