package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// YAMLConfig YAML配置文件结构
type YAMLConfig struct {
	Server struct {
		Port    int    `yaml:"port"`
		Metrics *bool  `yaml:"metrics"`
		Log     string `yaml:"log_level"`
	} `yaml:"server"`

	Storage struct {
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`

	Cache struct {
		RedisAddr string `yaml:"redis_addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		TTL       int    `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Notify struct {
		NATSURL string `yaml:"nats_url"`
		Subject string `yaml:"subject"`
	} `yaml:"notify"`

	Upstream struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
		YahooURL      string  `yaml:"yahoo_url"`
	} `yaml:"upstream"`
}

// Config 配置
type Config struct {
	// HTTP 服务端口
	Port int

	// 是否暴露 /metrics
	Metrics bool

	// 日志级别
	LogLevel string

	// 回测记录存储，sqlite 文件路径或 postgres:// DSN；为空不落库
	StorageDSN string

	// Redis 行情缓存地址，为空不启用
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// NATS 地址，为空不推送
	NATSURL     string
	NATSSubject string

	// 上游限流
	RatePerSecond float64
	Burst         int
	YahooURL      string
}

// DefaultConfig 默认配置
var DefaultConfig = Config{
	Port:          19528,
	Metrics:       true,
	LogLevel:      "info",
	StorageDSN:    "runtime/pairs.db",
	CacheTTL:      6 * time.Hour,
	NATSSubject:   "pairs.runs",
	RatePerSecond: 5,
	Burst:         2,
}

// LoadFromFile 从YAML文件加载配置
func LoadFromFile(path string) (*Config, error) {
	yc, err := loadYAML(path)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig
	yc.apply(&config)
	return &config, nil
}

func loadYAML(path string) (YAMLConfig, error) {
	var yc YAMLConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return yc, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return yc, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return yc, nil
}

// apply 只覆盖配置文件中写了的项，写成默认值也算
func (yc YAMLConfig) apply(c *Config) {
	if yc.Server.Port > 0 {
		c.Port = yc.Server.Port
	}
	if yc.Server.Metrics != nil {
		c.Metrics = *yc.Server.Metrics
	}
	if yc.Server.Log != "" {
		c.LogLevel = yc.Server.Log
	}

	if yc.Storage.DSN != "" {
		c.StorageDSN = yc.Storage.DSN
	}

	if yc.Cache.RedisAddr != "" {
		c.RedisAddr = yc.Cache.RedisAddr
		c.RedisPassword = yc.Cache.Password
		c.RedisDB = yc.Cache.DB
	}
	if yc.Cache.TTL > 0 {
		c.CacheTTL = time.Duration(yc.Cache.TTL) * time.Second
	}

	if yc.Notify.NATSURL != "" {
		c.NATSURL = yc.Notify.NATSURL
	}
	if yc.Notify.Subject != "" {
		c.NATSSubject = yc.Notify.Subject
	}

	if yc.Upstream.RatePerSecond > 0 {
		c.RatePerSecond = yc.Upstream.RatePerSecond
	}
	if yc.Upstream.Burst > 0 {
		c.Burst = yc.Upstream.Burst
	}
	if yc.Upstream.YahooURL != "" {
		c.YahooURL = yc.Upstream.YahooURL
	}
}

// GetConfig 获取配置 (优先级: 配置文件 > 环境变量 > 默认值)
// 环境变量可写在当前目录的 .env 中
func GetConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := DefaultConfig
	applyEnv(&config)

	if configPath != "" {
		yc, err := loadYAML(configPath)
		if err != nil {
			return nil, err
		}
		yc.apply(&config)
	}
	return &config, nil
}

// applyEnv 环境变量覆盖默认值
func applyEnv(c *Config) {
	if v := env("PAIRS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Port = p
		}
	}
	if v := env("PAIRS_METRICS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Metrics = b
		}
	}
	if v := env("PAIRS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := env("PAIRS_DB_DSN"); v != "" {
		c.StorageDSN = v
	}
	if v := env("PAIRS_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := env("PAIRS_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := env("PAIRS_NATS_URL"); v != "" {
		c.NATSURL = v
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
