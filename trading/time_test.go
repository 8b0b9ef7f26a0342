package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	want := time.Date(2024, 3, 4, 0, 0, 0, 0, CST)

	got, err := ParseDay("2024-03-04", nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseDay(" 20240304 ", CST)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseDay("03/04/2024", CST)
	assert.Error(t, err)
}

func TestWindow(t *testing.T) {
	now := time.Date(2025, 3, 15, 21, 45, 0, 0, CST)

	start, end := Window(now, time.Time{}, time.Time{}, 0)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, CST), end)
	assert.Equal(t, end.AddDate(0, 0, -DefaultLookbackDays), start)

	fixedEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, CST)
	start, end = Window(now, time.Time{}, fixedEnd, 30)
	assert.Equal(t, fixedEnd, end)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, CST), start)
}
