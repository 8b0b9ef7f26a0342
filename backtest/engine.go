package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pairs/fetcher"
	"pairs/metrics"
	"pairs/model"
	"pairs/trading"
)

type Runner struct {
	provider fetcher.Provider
	logger   zerolog.Logger
	now      func() time.Time
}

func NewRunner(provider fetcher.Provider) *Runner {
	return &Runner{
		provider: provider,
		logger:   log.Logger,
		now:      time.Now,
	}
}

func (r *Runner) WithLogger(l zerolog.Logger) *Runner {
	r.logger = l
	return r
}

func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Window resolves the configured date range against the runner clock.
func (r *Runner) Window(cfg RunConfig) (time.Time, time.Time) {
	return trading.Window(r.now().In(trading.CST), cfg.Start, cfg.End, cfg.Days)
}

// Run evaluates every configured pair independently. A failing pair is
// reported in its PairResult.Errors and does not stop the others.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) ([]PairResult, error) {
	if len(cfg.Pairs) == 0 {
		return nil, fmt.Errorf("no pairs configured")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	start, end := r.Window(cfg)
	out := make([]PairResult, len(cfg.Pairs))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Parallel > 0 {
		g.SetLimit(cfg.Parallel)
	}
	for i, pair := range cfg.Pairs {
		g.Go(func() error {
			res, err := r.RunOne(gctx, pair, start, end, cfg.Params)
			if err != nil {
				res = PairResult{Pair: pair, Params: cfg.Params, Errors: []string{err.Error()}}
			}
			out[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return out, ctx.Err()
}

// RunOne fetches both legs and runs the pipeline for a single pair.
func (r *Runner) RunOne(ctx context.Context, pair Pair, start, end time.Time, p Params) (PairResult, error) {
	began := time.Now()
	l := r.logger.With().Str("pair", pair.Label()).Logger()

	res, err := r.runOne(ctx, pair, start, end, p)
	metrics.ObserveRun(outcome(err), time.Since(began), len(res.Trades))
	if err != nil {
		l.Error().Err(err).Msg("回测失败")
		return PairResult{}, err
	}

	ev := l.Info().
		Int("points", res.Points).
		Int("entries", len(res.Entries)).
		Int("trades", len(res.Trades)).
		Float64("total_return", res.Summary.TotalReturn).
		Float64("max_drawdown", res.Summary.MaxDrawdown)
	if res.Summary.SharpeRatio != nil {
		ev = ev.Float64("sharpe", *res.Summary.SharpeRatio)
	}
	if res.Summary.NoTrades {
		ev = ev.Bool("no_trades", true)
	}
	ev.Msg("回测完成")
	return res, nil
}

func (r *Runner) runOne(ctx context.Context, pair Pair, start, end time.Time, p Params) (PairResult, error) {
	if err := p.Validate(); err != nil {
		return PairResult{}, err
	}

	a, err := r.fetch(ctx, pair.A, start, end)
	if err != nil {
		return PairResult{}, err
	}
	b, err := r.fetch(ctx, pair.B, start, end)
	if err != nil {
		return PairResult{}, err
	}
	return RunPair(pair, a, b, p)
}

func (r *Runner) fetch(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	s, err := r.provider.FetchCloses(ctx, symbol, start, end)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.PriceSeries{}, err
		}
		return model.PriceSeries{}, fmt.Errorf("%w: %s: %w", ErrUpstreamData, symbol, err)
	}
	if s.Symbol == "" {
		s.Symbol = symbol
	}
	return s, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrUpstreamData):
		return "upstream"
	default:
		return "error"
	}
}

func WriteResultsJSON(w io.Writer, results []PairResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
