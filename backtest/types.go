package backtest

import (
	"encoding/json"
	"fmt"
	"time"
)

type PricePoint struct {
	Time   time.Time `json:"time"`
	PriceA float64   `json:"price_a"`
	PriceB float64   `json:"price_b"`
}

// AlignedSeries holds both legs on their shared timestamps, strictly ascending.
type AlignedSeries struct {
	SymbolA string       `json:"symbol_a"`
	SymbolB string       `json:"symbol_b"`
	Points  []PricePoint `json:"points"`
}

func (s AlignedSeries) Len() int { return len(s.Points) }

type SignalState uint8

const (
	// SignalWarmup: fewer than window spreads seen, nothing is defined.
	SignalWarmup SignalState = iota
	// SignalNoDispersion: the window has no usable standard deviation, z is undefined.
	SignalNoDispersion
	SignalReady
)

func (s SignalState) String() string {
	switch s {
	case SignalWarmup:
		return "warmup"
	case SignalNoDispersion:
		return "no_dispersion"
	case SignalReady:
		return "ready"
	default:
		return "unknown"
	}
}

func (s SignalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SignalState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warmup":
		*s = SignalWarmup
	case "no_dispersion":
		*s = SignalNoDispersion
	case "ready":
		*s = SignalReady
	default:
		return fmt.Errorf("unknown signal state %q", b)
	}
	return nil
}

type SpreadPoint struct {
	Time   time.Time
	Spread float64
	Mean   float64
	Std    float64
	ZScore float64
	State  SignalState

	hasStats bool
}

// Stats returns the rolling mean and std when the window is complete.
func (p SpreadPoint) Stats() (mean, std float64, ok bool) {
	if !p.hasStats {
		return 0, 0, false
	}
	return p.Mean, p.Std, true
}

// Z returns the z-score, ok is false whenever there is no signal.
func (p SpreadPoint) Z() (float64, bool) {
	if p.State != SignalReady {
		return 0, false
	}
	return p.ZScore, true
}

type spreadPointJSON struct {
	Time   time.Time   `json:"time"`
	Spread float64     `json:"spread"`
	Mean   *float64    `json:"mean"`
	Std    *float64    `json:"std"`
	ZScore *float64    `json:"z_score"`
	State  SignalState `json:"state"`
}

// MarshalJSON renders undefined statistics as null.
func (p SpreadPoint) MarshalJSON() ([]byte, error) {
	o := spreadPointJSON{Time: p.Time, Spread: p.Spread, State: p.State}
	if mean, std, ok := p.Stats(); ok {
		o.Mean, o.Std = &mean, &std
	}
	if z, ok := p.Z(); ok {
		o.ZScore = &z
	}
	return json.Marshal(o)
}

func (p *SpreadPoint) UnmarshalJSON(b []byte) error {
	var o spreadPointJSON
	if err := json.Unmarshal(b, &o); err != nil {
		return err
	}
	*p = SpreadPoint{Time: o.Time, Spread: o.Spread, State: o.State}
	if o.Mean != nil && o.Std != nil {
		p.Mean, p.Std, p.hasStats = *o.Mean, *o.Std, true
	}
	if o.ZScore != nil {
		p.ZScore = *o.ZScore
	}
	return nil
}

type EventKind string

const (
	EventEntry EventKind = "entry"
	EventExit  EventKind = "exit"
)

type TradeEvent struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Kind  EventKind `json:"kind"`
}

type Position struct {
	Open       bool
	EntryPrice float64
	Entry      TradeEvent
}

type ClosedTrade struct {
	Entry TradeEvent `json:"entry"`
	Exit  TradeEvent `json:"exit"`
	PnL   float64    `json:"pnl"`
}

type SimulationResult struct {
	Entries   []TradeEvent  `json:"entries"`
	Exits     []TradeEvent  `json:"exits"`
	Trades    []ClosedTrade `json:"trades"`
	OpenEntry *TradeEvent   `json:"open_entry,omitempty"`
}

// PnLs returns the per-trade pnl in close order.
func (r SimulationResult) PnLs() []float64 {
	out := make([]float64, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = t.PnL
	}
	return out
}

type PerformanceSummary struct {
	CumulativeReturns []float64 `json:"cumulative_returns"`
	PeriodicReturns   []float64 `json:"periodic_returns"`
	SharpeRatio       *float64  `json:"sharpe_ratio"`
	MaxDrawdown       float64   `json:"max_drawdown"`
	TotalReturn       float64   `json:"total_return"`
	Trades            int       `json:"trades"`
	NoTrades          bool      `json:"no_trades,omitempty"`
}

type Pair struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	A    string `json:"a" yaml:"a" toml:"a"`
	B    string `json:"b" yaml:"b" toml:"b"`
}

func (p Pair) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.A + "/" + p.B
}

type Status struct {
	LastDate  string      `json:"last_date"`
	LastZ     *float64    `json:"last_z"`
	State     SignalState `json:"state"`
	InTrade   bool        `json:"in_trade"`
	OpenEntry *TradeEvent `json:"open_entry,omitempty"`
}

type PairResult struct {
	Pair    Pair               `json:"pair"`
	Params  Params             `json:"params"`
	Start   string             `json:"start,omitempty"`
	End     string             `json:"end,omitempty"`
	Points  int                `json:"points"`
	Signal  []SpreadPoint      `json:"signal,omitempty"`
	Entries []TradeEvent       `json:"entries"`
	Exits   []TradeEvent       `json:"exits"`
	Trades  []ClosedTrade      `json:"trades"`
	Summary PerformanceSummary `json:"summary"`
	Status  Status             `json:"status"`
	Errors  []string           `json:"errors,omitempty"`
}

const dateLayout = "2006-01-02"
