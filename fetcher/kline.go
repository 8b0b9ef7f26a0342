package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"pairs/model"
	"pairs/trading"
)

const (
	// 东方财富日K接口（A股）
	eastmoneyKLineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	// 新浪期货日K接口
	sinaFuturesKLineURL = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php/var=/InnerFuturesNewService.getDailyKLine"
)

// KLineFetcher K线数据拉取器（A股走东方财富，期货走新浪）
type KLineFetcher struct {
	client     *http.Client
	stockURL   string
	futuresURL string
}

// NewKLineFetcher 创建K线数据拉取器
func NewKLineFetcher() *KLineFetcher {
	return &KLineFetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		stockURL:   eastmoneyKLineURL,
		futuresURL: sinaFuturesKLineURL,
	}
}

// WithBaseURLs 替换接口地址（测试或代理时使用），空字符串保持默认
func (f *KLineFetcher) WithBaseURLs(stockURL, futuresURL string) *KLineFetcher {
	if stockURL != "" {
		f.stockURL = stockURL
	}
	if futuresURL != "" {
		f.futuresURL = futuresURL
	}
	return f
}

// FetchCloses 按代码类型分发：nf_ 前缀为期货，sh/sz 前缀为股票
func (f *KLineFetcher) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	if IsFuturesCode(symbol) {
		return f.FetchFuturesCloses(ctx, symbol, start, end)
	}
	return f.FetchStockCloses(ctx, symbol, start, end)
}

// FetchStockCloses 获取股票日K收盘价
// code: 股票代码（如 sh600000, sz000001）
func (f *KLineFetcher) FetchStockCloses(ctx context.Context, code string, start, end time.Time) (model.PriceSeries, error) {
	// 转换代码格式: sh600000 -> 1.600000, sz000001 -> 0.000001
	secid, err := eastmoneySecID(code)
	if err != nil {
		return model.PriceSeries{}, err
	}

	beg := "0"
	if !start.IsZero() {
		beg = start.Format("20060102")
	}
	fin := "20500101"
	if !end.IsZero() {
		fin = end.Format("20060102")
	}

	url := fmt.Sprintf(
		"%s?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57&klt=101&fqt=1&beg=%s&end=%s",
		f.stockURL, secid, beg, fin,
	)

	body, err := f.get(ctx, url, "https://quote.eastmoney.com/", false)
	if err != nil {
		return model.PriceSeries{}, err
	}

	points, err := parseStockKLine(body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("解析股票K线失败 %s: %w", code, err)
	}
	if len(points) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, code)
	}
	return model.PriceSeries{Symbol: code, Points: points}.Between(start, end), nil
}

func eastmoneySecID(code string) (string, error) {
	if len(code) <= 2 {
		return "", fmt.Errorf("%w: 股票代码格式错误: %s", ErrUnknownSymbol, code)
	}
	market, num := strings.ToLower(code[:2]), code[2:]
	switch market {
	case "sh":
		return "1." + num, nil
	case "sz":
		return "0." + num, nil
	default:
		return "", fmt.Errorf("%w: 未知的股票代码格式: %s", ErrUnknownSymbol, code)
	}
}

// parseStockKLine 解析股票K线数据
func parseStockKLine(data []byte) ([]model.ClosePoint, error) {
	var result struct {
		Data *struct {
			Klines []string `json:"klines"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, nil
	}

	points := make([]model.ClosePoint, 0, len(result.Data.Klines))
	for _, line := range result.Data.Klines {
		// 格式: 日期,开盘,收盘,最高,最低,成交量,成交额
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		t, err := trading.ParseDay(parts[0], trading.CST)
		if err != nil {
			continue
		}
		c, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			continue
		}
		points = append(points, model.ClosePoint{Time: t, Close: c})
	}
	sortPoints(points)
	return points, nil
}

// FetchFuturesCloses 获取期货日K收盘价
// code: 期货代码（如 nf_AU0）
func (f *KLineFetcher) FetchFuturesCloses(ctx context.Context, code string, start, end time.Time) (model.PriceSeries, error) {
	// nf_AU0 -> AU0
	symbol := code
	if IsFuturesCode(code) {
		symbol = code[3:]
	}

	url := fmt.Sprintf("%s?symbol=%s", f.futuresURL, symbol)

	body, err := f.get(ctx, url, "https://finance.sina.com.cn/", true)
	if err != nil {
		return model.PriceSeries{}, err
	}

	points, err := parseFuturesKLine(body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("解析期货K线失败 %s: %w", code, err)
	}
	if len(points) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, code)
	}
	return model.PriceSeries{Symbol: code, Points: points}.Between(start, end), nil
}

// FuturesKLineData 期货K线数据结构
type FuturesKLineData struct {
	D string `json:"d"` // 日期
	O string `json:"o"` // 开盘
	H string `json:"h"` // 最高
	L string `json:"l"` // 最低
	C string `json:"c"` // 收盘
	V string `json:"v"` // 成交量
}

// parseFuturesKLine 解析期货K线数据
// 响应格式: var=([{...},{...},...])
func parseFuturesKLine(data []byte) ([]model.ClosePoint, error) {
	str := string(data)
	start := strings.IndexByte(str, '[')
	end := strings.LastIndexByte(str, ']')
	if start == -1 || end == -1 || start >= end {
		if strings.Contains(str, "null") {
			return nil, nil
		}
		return nil, fmt.Errorf("无法解析期货K线数据")
	}

	var rawData []FuturesKLineData
	if err := json.Unmarshal([]byte(str[start:end+1]), &rawData); err != nil {
		return nil, err
	}

	points := make([]model.ClosePoint, 0, len(rawData))
	for _, row := range rawData {
		t, err := trading.ParseDay(row.D, trading.CST)
		if err != nil {
			continue
		}
		c, err := strconv.ParseFloat(row.C, 64)
		if err != nil {
			continue
		}
		points = append(points, model.ClosePoint{Time: t, Close: c})
	}
	sortPoints(points)
	return points, nil
}

func (f *KLineFetcher) get(ctx context.Context, url, referer string, gbk bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Referer", referer)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求失败: HTTP %d", resp.StatusCode)
	}

	var r io.Reader = resp.Body
	if gbk {
		// 新浪返回GBK编码
		r = transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}

// IsFuturesCode 是否为期货代码（nf_ 前缀，大小写不敏感）
func IsFuturesCode(code string) bool {
	return len(code) > 3 && strings.EqualFold(code[:3], "nf_")
}

// IsAShareCode 是否为A股代码（sh/sz 前缀 + 6位数字）
func IsAShareCode(code string) bool {
	if len(code) != 8 {
		return false
	}
	p := strings.ToLower(code[:2])
	if p != "sh" && p != "sz" {
		return false
	}
	_, err := strconv.Atoi(code[2:])
	return err == nil
}

func sortPoints(points []model.ClosePoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
}
