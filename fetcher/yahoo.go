package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pairs/model"
	"pairs/trading"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooFetcher 通过 Yahoo Finance chart 接口获取美股等海外标的日K收盘价
type YahooFetcher struct {
	client  *http.Client
	baseURL string
}

// NewYahooFetcher 创建 Yahoo 拉取器，baseURL 为空时使用默认地址
func NewYahooFetcher(baseURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = yahooChartURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &YahooFetcher{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
	}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchCloses 获取 [start, end] 区间日收盘价，end 当天包含在内
func (f *YahooFetcher) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(start.Unix()))
	if end.IsZero() {
		end = trading.Day(time.Now())
	}
	q.Set("period2", fmt.Sprint(end.AddDate(0, 0, 1).Unix()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+url.PathEscape(symbol)+"?"+q.Encode(), nil)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := f.client.Do(req)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("请求失败: HTTP %d", resp.StatusCode)
	}

	points, err := parseYahooChart(body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("%s: %w", symbol, err)
	}
	if len(points) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return model.PriceSeries{Symbol: symbol, Points: points}.Between(start, end), nil
}

// parseYahooChart 时间戳按交易所时区取交易日，统一落到 CST 零点以便与国内标的对齐；缺失的收盘价跳过
func parseYahooChart(data []byte) ([]model.ClosePoint, error) {
	var c yahooChart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, c.Chart.Error.Description)
	}
	if len(c.Chart.Result) == 0 {
		return nil, nil
	}

	r := c.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := r.Indicators.Quote[0].Close
	loc := time.FixedZone("exchange", r.Meta.GMTOffset)

	points := make([]model.ClosePoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := trading.Day(time.Unix(ts, 0).In(loc))
		points = append(points, model.ClosePoint{
			Time:  time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, trading.CST),
			Close: *closes[i],
		})
	}
	sortPoints(points)
	return points, nil
}
