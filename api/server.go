package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pairs/internal/runs"
	"pairs/metrics"
	"pairs/storage"
)

// Server HTTP服务器
type Server struct {
	engine  *gin.Engine
	server  *http.Server
	svc     *runs.Service
	repo    storage.Repository
	metrics bool
}

// NewServer 创建服务器
func NewServer(svc *runs.Service, port int, withMetrics bool) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware())

	s := &Server{
		engine:  engine,
		svc:     svc,
		repo:    svc.Repo,
		metrics: withMetrics,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	s.setupRoutes()
	return s
}

// Handler 暴露 gin 引擎（测试用）
func (s *Server) Handler() http.Handler {
	return s.engine
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	handler := NewHandler(s.svc, s.repo)

	api := s.engine.Group("/api")
	{
		// 回测
		api.POST("/backtest", handler.RunBacktest)

		// 历史记录
		api.GET("/runs", handler.ListRuns)
		api.GET("/runs/:id", handler.GetRun)
	}

	// 健康检查
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.metrics {
		s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	log.Info().Str("addr", "http://localhost"+s.server.Addr).Msg("[API] 服务启动")
	log.Info().Msg("[API] 可用接口: POST /api/backtest, GET /api/runs, GET /api/runs/:id, GET /health")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// loggerMiddleware 日志中间件
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Debug().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("[API]")
	}
}

// corsMiddleware CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
