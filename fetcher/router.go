package fetcher

import (
	"context"
	"time"

	"pairs/model"
)

// Router 按代码形态选择数据源：A股 / 国内期货走 KLineFetcher，其他走 Yahoo
type Router struct {
	Domestic Provider
	Overseas Provider
}

func NewRouter() *Router {
	return &Router{
		Domestic: NewKLineFetcher(),
		Overseas: NewYahooFetcher(""),
	}
}

func (r *Router) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	if IsAShareCode(symbol) || IsFuturesCode(symbol) {
		return r.Domestic.FetchCloses(ctx, symbol, start, end)
	}
	return r.Overseas.FetchCloses(ctx, symbol, start, end)
}
