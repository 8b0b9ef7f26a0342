package fetcher

import (
	"context"
	"errors"
	"time"

	"pairs/model"
)

// ErrUnknownSymbol 数据源不认识该代码或没有返回任何数据
var ErrUnknownSymbol = errors.New("unknown symbol")

// Provider 历史收盘价数据源
// 返回 [start, end] 区间内按时间升序排列的日收盘价
type Provider interface {
	FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error)
}

// ProviderFunc 函数适配器
type ProviderFunc func(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error)

func (f ProviderFunc) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	return f(ctx, symbol, start, end)
}
