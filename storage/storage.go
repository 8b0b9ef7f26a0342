package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"pairs/backtest"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("run not found")

// Run 一次配对回测的持久化记录
type Run struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Result    backtest.PairResult `json:"result"`
}

// Repository 回测记录存储
type Repository interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// NewRun 为回测结果分配 ID
func NewRun(res backtest.PairResult, now time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Result:    res,
	}
}

// Row 落库的扁平字段，便于 SQL 侧筛选
type Row struct {
	ID          string
	Pair        string
	SymbolA     string
	SymbolB     string
	Start       string
	End         string
	Trades      int
	TotalReturn float64
	Sharpe      *float64
	MaxDrawdown float64
	CreatedAtMs int64
	Payload     string
}

func ToRow(r Run) (Row, error) {
	b, err := json.Marshal(r.Result)
	if err != nil {
		return Row{}, err
	}
	res := r.Result
	return Row{
		ID:          r.ID,
		Pair:        res.Pair.Label(),
		SymbolA:     res.Pair.A,
		SymbolB:     res.Pair.B,
		Start:       res.Start,
		End:         res.End,
		Trades:      len(res.Trades),
		TotalReturn: res.Summary.TotalReturn,
		Sharpe:      res.Summary.SharpeRatio,
		MaxDrawdown: res.Summary.MaxDrawdown,
		CreatedAtMs: r.CreatedAt.UnixMilli(),
		Payload:     string(b),
	}, nil
}

func FromRow(id string, createdAtMs int64, payload string) (Run, error) {
	var res backtest.PairResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return Run{}, err
	}
	return Run{ID: id, CreatedAt: time.UnixMilli(createdAtMs).UTC(), Result: res}, nil
}

const DefaultListLimit = 50

func ClampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultListLimit
	}
	return limit
}
