package backtest

import "math"

// Evaluate derives the performance summary from per-trade pnl.
//
// Returns ErrNoTrades together with a usable "no data" summary when pnls is
// empty. The Sharpe ratio is per trade and uses the population std; it is nil
// when the returns have no dispersion.
func Evaluate(pnls []float64) (PerformanceSummary, error) {
	if len(pnls) == 0 {
		return PerformanceSummary{
			CumulativeReturns: []float64{},
			PeriodicReturns:   []float64{},
			NoTrades:          true,
		}, ErrNoTrades
	}

	cum := make([]float64, len(pnls))
	run := 0.0
	for i, v := range pnls {
		run += v
		cum[i] = run
	}

	periodic := make([]float64, len(cum))
	prev := 0.0
	for i, c := range cum {
		periodic[i] = c - prev
		prev = c
	}

	return PerformanceSummary{
		CumulativeReturns: cum,
		PeriodicReturns:   periodic,
		SharpeRatio:       sharpe(periodic),
		MaxDrawdown:       maxDrawdown(cum),
		TotalReturn:       cum[len(cum)-1],
		Trades:            len(pnls),
	}, nil
}

func sharpe(returns []float64) *float64 {
	n := float64(len(returns))
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= n

	ss := 0.0
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / n)
	if std == 0 || math.IsNaN(std) {
		return nil
	}
	v := mean / std
	return &v
}

// maxDrawdown measures from the running peak of cum itself, so a losing first
// trade is not counted as a drawdown from zero.
func maxDrawdown(cum []float64) float64 {
	peak := cum[0]
	dd := 0.0
	for _, c := range cum {
		if c > peak {
			peak = c
		}
		if d := peak - c; d > dd {
			dd = d
		}
	}
	return dd
}
