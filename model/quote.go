package model

import "time"

// ClosePoint 单根日K的收盘价
type ClosePoint struct {
	Time  time.Time `json:"time"`  // 交易日
	Close float64   `json:"close"` // 收盘价
}

// PriceSeries 单个标的按时间排列的收盘价序列
type PriceSeries struct {
	Symbol string       `json:"symbol"` // 标的代码
	Points []ClosePoint `json:"points"` // 收盘价（升序）
}

// Len 序列长度
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// First 第一根K线时间，空序列返回零值
func (s PriceSeries) First() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Time
}

// Last 最后一根K线时间，空序列返回零值
func (s PriceSeries) Last() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Time
}

// Between 截取 [start, end] 区间内的点（零值表示不限）
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	out := PriceSeries{Symbol: s.Symbol, Points: make([]ClosePoint, 0, len(s.Points))}
	for _, p := range s.Points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && p.Time.After(end) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}
