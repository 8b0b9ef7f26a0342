package backtest

import "errors"

var (
	// ErrInsufficientData 对齐后的数据点不足以计算任何 z-score
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter 参数非法（窗口、阈值、手续费）
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoTrades 没有任何已平仓交易，绩效指标无意义
	ErrNoTrades = errors.New("no closed trades")

	// ErrUpstreamData 行情数据源失败（网络、未知代码、熔断）
	ErrUpstreamData = errors.New("upstream data error")
)
