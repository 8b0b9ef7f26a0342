package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Setup 配置全局 zerolog：控制台输出到 stderr，非终端时关闭颜色
func Setup(level string) {
	log.Logger = New(os.Stderr, level, !term.IsTerminal(int(os.Stderr.Fd())))
	zerolog.SetGlobalLevel(ParseLevel(level))
}

func New(w io.Writer, level string, noColor bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: noColor}
	return zerolog.New(output).With().Timestamp().Logger().Level(ParseLevel(level))
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
