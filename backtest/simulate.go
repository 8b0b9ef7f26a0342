package backtest

import "fmt"

// Simulate runs the single-position entry/exit rule over the signal.
//
// Flat -> in position when |z| > entry threshold, in position -> flat when
// |z| < exit threshold. Index 0 is never evaluated and undefined z-scores never
// trigger anything. A position still open at the end is reported in OpenEntry
// and produces no ClosedTrade.
func Simulate(series AlignedSeries, signal []SpreadPoint, p Params) (SimulationResult, error) {
	if err := p.validateThresholds(); err != nil {
		return SimulationResult{}, err
	}
	if len(series.Points) != len(signal) {
		return SimulationResult{}, fmt.Errorf("%w: series has %d points, signal has %d",
			ErrInvalidParameter, len(series.Points), len(signal))
	}

	res := SimulationResult{
		Entries: []TradeEvent{},
		Exits:   []TradeEvent{},
		Trades:  []ClosedTrade{},
	}
	var pos Position

	for i := 1; i < len(signal); i++ {
		z, ok := signal[i].Z()
		if !ok {
			continue
		}
		sp := signal[i]
		a := abs(z)

		if !pos.Open {
			if a > p.EntryThreshold {
				ev := TradeEvent{Time: sp.Time, Price: sp.Spread, Kind: EventEntry}
				pos = Position{Open: true, EntryPrice: sp.Spread, Entry: ev}
				res.Entries = append(res.Entries, ev)
			}
			continue
		}

		if a < p.ExitThreshold {
			ev := TradeEvent{Time: sp.Time, Price: sp.Spread, Kind: EventExit}
			res.Exits = append(res.Exits, ev)
			res.Trades = append(res.Trades, ClosedTrade{
				Entry: pos.Entry,
				Exit:  ev,
				PnL:   ev.Price - pos.EntryPrice - p.TransactionCost,
			})
			pos = Position{}
		}
	}

	if pos.Open {
		open := pos.Entry
		res.OpenEntry = &open
	}
	return res, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
