package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pairs/trading"
)

type FileConfig struct {
	Backtest struct {
		Days     int    `yaml:"days" toml:"days"`
		Start    string `yaml:"start" toml:"start"`
		End      string `yaml:"end" toml:"end"`
		Parallel int    `yaml:"parallel" toml:"parallel"`
	} `yaml:"backtest" toml:"backtest"`

	Strategy struct {
		Window          *int     `yaml:"window" toml:"window"`
		EntryThreshold  *float64 `yaml:"entry_threshold" toml:"entry_threshold"`
		ExitThreshold   *float64 `yaml:"exit_threshold" toml:"exit_threshold"`
		TransactionCost *float64 `yaml:"transaction_cost" toml:"transaction_cost"`
		IncludeSignal   bool     `yaml:"include_signal" toml:"include_signal"`
	} `yaml:"strategy" toml:"strategy"`

	Pairs []Pair `yaml:"pairs" toml:"pairs"`

	Data struct {
		Source string `yaml:"source" toml:"source"`
		CSVDir string `yaml:"csv_dir" toml:"csv_dir"`
	} `yaml:"data" toml:"data"`
}

type DataSource string

const (
	SourceHTTP DataSource = "http"
	SourceCSV  DataSource = "csv"
)

type RunConfig struct {
	Days     int
	Start    time.Time
	End      time.Time
	Parallel int

	Params Params
	Pairs  []Pair

	Source DataSource
	CSVDir string
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Days:     trading.DefaultLookbackDays,
		Parallel: 4,
		Params:   DefaultParams(),
		Source:   SourceHTTP,
		CSVDir:   "data",
	}
}

// LoadRunConfig reads a YAML or TOML run config (by extension) over the defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &fc); err != nil {
			return RunConfig{}, fmt.Errorf("parse toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return RunConfig{}, fmt.Errorf("parse yaml: %w", err)
		}
	}
	return fc.RunConfig()
}

func (fc FileConfig) RunConfig() (RunConfig, error) {
	cfg := DefaultRunConfig()

	if fc.Backtest.Days > 0 {
		cfg.Days = fc.Backtest.Days
	}
	if fc.Backtest.Parallel > 0 {
		cfg.Parallel = fc.Backtest.Parallel
	}
	if fc.Backtest.Start != "" {
		t, err := trading.ParseDay(fc.Backtest.Start, trading.CST)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid backtest.start: %w", err)
		}
		cfg.Start = t
	}
	if fc.Backtest.End != "" {
		t, err := trading.ParseDay(fc.Backtest.End, trading.CST)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid backtest.end: %w", err)
		}
		cfg.End = t
	}
	if !cfg.Start.IsZero() && !cfg.End.IsZero() && cfg.End.Before(cfg.Start) {
		return RunConfig{}, fmt.Errorf("%w: backtest.end before backtest.start", ErrInvalidParameter)
	}

	s := fc.Strategy
	if s.Window != nil {
		cfg.Params.Window = *s.Window
	}
	if s.EntryThreshold != nil {
		cfg.Params.EntryThreshold = *s.EntryThreshold
	}
	if s.ExitThreshold != nil {
		cfg.Params.ExitThreshold = *s.ExitThreshold
	}
	if s.TransactionCost != nil {
		cfg.Params.TransactionCost = *s.TransactionCost
	}
	cfg.Params.IncludeSignal = s.IncludeSignal
	if err := cfg.Params.Validate(); err != nil {
		return RunConfig{}, err
	}

	for _, p := range fc.Pairs {
		p.A = strings.TrimSpace(p.A)
		p.B = strings.TrimSpace(p.B)
		if p.A == "" || p.B == "" {
			return RunConfig{}, fmt.Errorf("%w: pair %q needs both a and b", ErrInvalidParameter, p.Name)
		}
		cfg.Pairs = append(cfg.Pairs, p)
	}

	switch DataSource(strings.ToLower(fc.Data.Source)) {
	case "", SourceHTTP:
		cfg.Source = SourceHTTP
	case SourceCSV:
		cfg.Source = SourceCSV
	default:
		return RunConfig{}, fmt.Errorf("unknown data.source: %s", fc.Data.Source)
	}
	if fc.Data.CSVDir != "" {
		cfg.CSVDir = fc.Data.CSVDir
	}
	return cfg, nil
}
