package backtest

import (
	"errors"
	"fmt"
	"math"

	"pairs/model"
)

type Params struct {
	Window          int     `json:"window" yaml:"window" toml:"window"`
	EntryThreshold  float64 `json:"entry_threshold" yaml:"entry_threshold" toml:"entry_threshold"`
	ExitThreshold   float64 `json:"exit_threshold" yaml:"exit_threshold" toml:"exit_threshold"`
	TransactionCost float64 `json:"transaction_cost" yaml:"transaction_cost" toml:"transaction_cost"`

	// IncludeSignal copies the full spread/z-score series into the result.
	IncludeSignal bool `json:"include_signal,omitempty" yaml:"include_signal" toml:"include_signal"`
}

func DefaultParams() Params {
	return Params{
		Window:          20,
		EntryThreshold:  1.0,
		ExitThreshold:   0.5,
		TransactionCost: 0.0005,
	}
}

func (p Params) Validate() error {
	if p.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %d", ErrInvalidParameter, p.Window)
	}
	if err := p.validateThresholds(); err != nil {
		return err
	}
	if p.TransactionCost < 0 || !finite(p.TransactionCost) {
		return fmt.Errorf("%w: transaction cost must be a non-negative number, got %v", ErrInvalidParameter, p.TransactionCost)
	}
	return nil
}

func (p Params) validateThresholds() error {
	if !finite(p.EntryThreshold) || !finite(p.ExitThreshold) {
		return fmt.Errorf("%w: thresholds must be finite", ErrInvalidParameter)
	}
	if p.ExitThreshold < 0 || p.EntryThreshold < 0 {
		return fmt.Errorf("%w: thresholds must be non-negative (entry=%v exit=%v)", ErrInvalidParameter, p.EntryThreshold, p.ExitThreshold)
	}
	if p.EntryThreshold <= p.ExitThreshold {
		return fmt.Errorf("%w: entry threshold %v must be greater than exit threshold %v", ErrInvalidParameter, p.EntryThreshold, p.ExitThreshold)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RunPair is the whole pipeline for one pair: align, signal, simulate, evaluate.
// Having no closed trades is not an error; the summary reports NoTrades.
func RunPair(pair Pair, a, b model.PriceSeries, p Params) (PairResult, error) {
	if err := p.Validate(); err != nil {
		return PairResult{}, err
	}

	series, err := Align(a, b, p.Window)
	if err != nil {
		return PairResult{}, err
	}

	signal := BuildSignal(series, p.Window)

	sim, err := Simulate(series, signal, p)
	if err != nil {
		return PairResult{}, err
	}

	summary, err := Evaluate(sim.PnLs())
	if err != nil && !errors.Is(err, ErrNoTrades) {
		return PairResult{}, err
	}

	res := PairResult{
		Pair:    pair,
		Params:  p,
		Start:   series.first().Format(dateLayout),
		End:     series.last().Format(dateLayout),
		Points:  series.Len(),
		Entries: sim.Entries,
		Exits:   sim.Exits,
		Trades:  sim.Trades,
		Summary: summary,
		Status:  latestStatus(signal, sim),
	}
	if p.IncludeSignal {
		res.Signal = signal
	}
	return res, nil
}

func latestStatus(signal []SpreadPoint, sim SimulationResult) Status {
	last := signal[len(signal)-1]
	st := Status{
		LastDate:  last.Time.Format(dateLayout),
		State:     last.State,
		InTrade:   sim.OpenEntry != nil,
		OpenEntry: sim.OpenEntry,
	}
	if z, ok := last.Z(); ok {
		st.LastZ = &z
	}
	return st
}
