package pairsd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pairs/api"
	"pairs/backtest"
	"pairs/config"
	"pairs/internal/runs"
	"pairs/logger"
)

// NewCommand pairs serve
func NewCommand() *cobra.Command {
	var configPath string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动回测 HTTP 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath, port, !cmd.Flags().Changed("log-level"))
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "配置文件路径(YAML格式)，默认优先使用 ./config.yaml")
	cmd.Flags().IntVar(&port, "port", 0, "覆盖 server.port")
	return cmd
}

func serve(ctx context.Context, configPath string, port int, levelFromConfig bool) error {
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
	}

	cfg, err := config.GetConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}
	if levelFromConfig {
		logger.Setup(cfg.LogLevel)
	}

	deps, err := runs.Open(ctx, cfg, backtest.SourceHTTP, "", true)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := runs.NewService(backtest.NewRunner(deps.Provider), deps.Repo, deps.Publisher)
	server := api.NewServer(svc, cfg.Port, cfg.Metrics)

	log.Info().
		Str("config", configPath).
		Int("port", cfg.Port).
		Bool("storage", deps.Repo != nil).
		Bool("metrics", cfg.Metrics).
		Msg("=== 配对交易回测服务 (pairsd) ===")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP服务启动失败")
		}
		return err
	case <-sigCtx.Done():
	}

	log.Info().Msg("正在关闭服务...")
	if err := server.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("关闭服务失败")
	}
	log.Info().Msg("服务已关闭")
	return nil
}
