package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pairs/backtest"
	"pairs/internal/runs"
	"pairs/storage"
	"pairs/trading"
)

// Handler API处理器
type Handler struct {
	svc  *runs.Service
	repo storage.Repository
}

// NewHandler 创建处理器
func NewHandler(svc *runs.Service, repo storage.Repository) *Handler {
	return &Handler{svc: svc, repo: repo}
}

// BacktestRequest 回测请求；参数缺省时使用默认值
type BacktestRequest struct {
	Pair            backtest.Pair `json:"pair"`
	Start           string        `json:"start"`
	End             string        `json:"end"`
	Days            int           `json:"days"`
	Window          *int          `json:"window"`
	EntryThreshold  *float64      `json:"entry_threshold"`
	ExitThreshold   *float64      `json:"exit_threshold"`
	TransactionCost *float64      `json:"transaction_cost"`
	IncludeSignal   bool          `json:"include_signal"`
}

func (r BacktestRequest) runConfig() (backtest.RunConfig, error) {
	cfg := backtest.DefaultRunConfig()
	if r.Days > 0 {
		cfg.Days = r.Days
	}
	if s := strings.TrimSpace(r.Start); s != "" {
		t, err := trading.ParseDay(s, trading.CST)
		if err != nil {
			return cfg, err
		}
		cfg.Start = t
	}
	if s := strings.TrimSpace(r.End); s != "" {
		t, err := trading.ParseDay(s, trading.CST)
		if err != nil {
			return cfg, err
		}
		cfg.End = t
	}
	if !cfg.Start.IsZero() && !cfg.End.IsZero() && cfg.End.Before(cfg.Start) {
		return cfg, fmt.Errorf("%w: end before start", backtest.ErrInvalidParameter)
	}
	if r.Window != nil {
		cfg.Params.Window = *r.Window
	}
	if r.EntryThreshold != nil {
		cfg.Params.EntryThreshold = *r.EntryThreshold
	}
	if r.ExitThreshold != nil {
		cfg.Params.ExitThreshold = *r.ExitThreshold
	}
	if r.TransactionCost != nil {
		cfg.Params.TransactionCost = *r.TransactionCost
	}
	cfg.Params.IncludeSignal = r.IncludeSignal
	return cfg, nil
}

// RunBacktest 运行单个配对回测
func (h *Handler) RunBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	req.Pair.A = strings.TrimSpace(req.Pair.A)
	req.Pair.B = strings.TrimSpace(req.Pair.B)
	if req.Pair.A == "" || req.Pair.B == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "配对代码不能为空"})
		return
	}

	cfg, err := req.runConfig()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := cfg.Params.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end := h.svc.Runner.Window(cfg)
	run, err := h.svc.Run(c.Request.Context(), req.Pair, start, end, cfg.Params)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "pair": req.Pair})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"id":   run.ID,
		"data": run.Result,
	})
}

// ListRuns 最近的回测记录
func (h *Handler) ListRuns(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "未配置存储"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.repo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":  0,
		"count": len(list),
		"data":  list,
	})
}

// GetRun 单条回测记录
func (h *Handler) GetRun(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "未配置存储"})
		return
	}
	id := c.Param("id")
	run, err := h.repo.GetRun(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "未找到该回测记录", "id": id})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": run})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, backtest.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, backtest.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backtest.ErrUpstreamData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
