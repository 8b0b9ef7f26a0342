package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pairs/model"
)

// GuardOptions 限流与熔断参数
type GuardOptions struct {
	Name             string
	RatePerSecond    float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func (o GuardOptions) withDefaults() GuardOptions {
	if o.Name == "" {
		o.Name = "price-history"
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 5
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 3
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 60 * time.Second
	}
	return o
}

// Guarded 给上游数据源加令牌桶限流和熔断
// 未知代码和调用方取消/超时不计入熔断失败次数
type Guarded struct {
	next    Provider
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func NewGuarded(next Provider, opts GuardOptions) *Guarded {
	opts = opts.withDefaults()
	st := gobreaker.Settings{
		Name:    opts.Name,
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnknownSymbol) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}
	return &Guarded{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (g *Guarded) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return model.PriceSeries{}, err
	}
	v, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.FetchCloses(ctx, symbol, start, end)
	})
	if err != nil {
		return model.PriceSeries{}, err
	}
	return v.(model.PriceSeries), nil
}

// State 当前熔断状态
func (g *Guarded) State() gobreaker.State {
	return g.breaker.State()
}
