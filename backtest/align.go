package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"pairs/model"
)

// Align inner-joins two close series on timestamp. Duplicate timestamps in one
// input keep the last occurrence; non-finite or non-positive closes are dropped.
func Align(a, b model.PriceSeries, window int) (AlignedSeries, error) {
	if window <= 0 {
		return AlignedSeries{}, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidParameter, window)
	}

	right := indexCloses(b.Points)

	out := AlignedSeries{SymbolA: a.Symbol, SymbolB: b.Symbol}
	for _, p := range dedupe(a.Points) {
		if !validClose(p.Close) {
			continue
		}
		pb, ok := right[p.Time.UnixNano()]
		if !ok || !validClose(pb) {
			continue
		}
		out.Points = append(out.Points, PricePoint{Time: p.Time, PriceA: p.Close, PriceB: pb})
	}

	if len(out.Points) < window+1 {
		return AlignedSeries{}, fmt.Errorf("%w: %s/%s aligned %d points, need at least %d",
			ErrInsufficientData, a.Symbol, b.Symbol, len(out.Points), window+1)
	}
	return out, nil
}

func indexCloses(points []model.ClosePoint) map[int64]float64 {
	m := make(map[int64]float64, len(points))
	for _, p := range points {
		m[p.Time.UnixNano()] = p.Close
	}
	return m
}

// dedupe sorts by time and keeps the last occurrence of each timestamp.
func dedupe(points []model.ClosePoint) []model.ClosePoint {
	last := make(map[int64]int, len(points))
	for i, p := range points {
		last[p.Time.UnixNano()] = i
	}
	out := make([]model.ClosePoint, 0, len(last))
	for i, p := range points {
		if last[p.Time.UnixNano()] == i {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func validClose(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (s AlignedSeries) first() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Time
}

func (s AlignedSeries) last() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Time
}
