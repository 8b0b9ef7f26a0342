package pairsctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pairs/backtest"
	"pairs/config"
	"pairs/internal/runs"
	"pairs/logger"
	"pairs/storage"
)

type options struct {
	btConfig      string
	serviceConfig string
	out           string
	format        string
	save          bool
	csvDir        string

	levelFromConfig bool
}

// NewCommand pairs backtest
func NewCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "按回测配置运行配对交易回测并输出报告",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.levelFromConfig = !cmd.Flags().Changed("log-level")
			return run(cmd.Context(), o, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&o.btConfig, "bt-config", "backtest.yaml", "回测配置文件路径(YAML/TOML)")
	cmd.Flags().StringVar(&o.serviceConfig, "config", "", "服务配置文件路径(YAML格式)，默认优先使用 ./config.yaml")
	cmd.Flags().StringVar(&o.out, "out", "", "报告输出路径(默认stdout)")
	cmd.Flags().StringVar(&o.format, "format", "text", "报告格式: text|json")
	cmd.Flags().BoolVar(&o.save, "save", false, "保存回测记录到存储（storage.dsn）并推送")
	cmd.Flags().StringVar(&o.csvDir, "csv-dir", "", "覆盖 data.csv_dir，并强制使用本地 CSV 数据")
	return cmd
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	format := strings.ToLower(o.format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown --format %q", o.format)
	}

	cfg, err := backtest.LoadRunConfig(o.btConfig)
	if err != nil {
		return err
	}
	if o.csvDir != "" {
		cfg.Source = backtest.SourceCSV
		cfg.CSVDir = o.csvDir
	}

	svcCfg, err := config.GetConfig(defaultServiceConfig(o.serviceConfig))
	if err != nil {
		return err
	}
	if o.levelFromConfig {
		logger.Setup(svcCfg.LogLevel)
	}

	deps, err := runs.Open(ctx, svcCfg, cfg.Source, cfg.CSVDir, o.save)
	if err != nil {
		return err
	}
	defer deps.Close()

	runner := backtest.NewRunner(deps.Provider)
	results, err := runner.Run(ctx, cfg)
	if err != nil {
		return err
	}

	if o.save {
		svc := runs.NewService(runner, deps.Repo, deps.Publisher)
		for _, r := range results {
			if len(r.Errors) > 0 {
				continue
			}
			run := storage.NewRun(r, svc.Now())
			if err := svc.Record(ctx, run); err != nil {
				return fmt.Errorf("save run: %w", err)
			}
			log.Info().Str("id", run.ID).Str("pair", r.Pair.Label()).Msg("回测记录已保存")
		}
	}

	w, err := openOutput(o.out, stdout)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer w.Close()

	if format == "json" {
		return backtest.WriteResultsJSON(w, results)
	}
	return backtest.WriteResultsText(w, results)
}

func defaultServiceConfig(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}
