package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pairs/internal/pairsctl"
	"pairs/internal/pairsd"
	"pairs/logger"
)

// Version is injected by build scripts via -ldflags "-X main.Version=..."
var Version = "dev"

// usageError 参数错误，退出码 2
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func main() {
	var level string
	root := &cobra.Command{
		Use:           "pairs",
		Short:         "配对交易（价差 z-score 均值回归）回测",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if level == "" {
				level = os.Getenv("PAIRS_LOG_LEVEL")
			}
			logger.Setup(level)
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "", "日志级别 debug|info|warn|error")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(pairsctl.NewCommand())
	root.AddCommand(pairsd.NewCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("[ERROR] 执行失败")
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
