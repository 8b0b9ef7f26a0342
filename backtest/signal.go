package backtest

import "math"

// BuildSignal computes the spread (a - b) and its rolling z-score over a
// trailing window, one SpreadPoint per input point. Rolling std uses the
// sample divisor (window - 1).
func BuildSignal(series AlignedSeries, window int) []SpreadPoint {
	n := len(series.Points)
	spreads := make([]float64, n)
	for i, p := range series.Points {
		spreads[i] = p.PriceA - p.PriceB
	}

	out := make([]SpreadPoint, n)
	for i, p := range series.Points {
		sp := SpreadPoint{Time: p.Time, Spread: spreads[i], State: SignalWarmup}
		if window > 0 && i >= window-1 {
			mean, std, ok := windowStats(spreads[i-window+1 : i+1])
			sp.Mean = mean
			sp.State = SignalNoDispersion
			if ok {
				sp.Std = std
				sp.hasStats = true
				if std > 0 {
					sp.ZScore = (spreads[i] - mean) / std
					sp.State = SignalReady
				}
			}
		}
		out[i] = sp
	}
	return out
}

// windowStats is a two-pass mean / sample std. ok is false when the window is
// too short for a sample deviation. A window of identical values has exactly
// zero std and its value as mean.
func windowStats(xs []float64) (mean, std float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	if allEqual(xs) {
		return xs[0], 0, len(xs) >= 2
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1)), true
}

func allEqual(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
