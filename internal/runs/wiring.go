package runs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pairs/backtest"
	"pairs/config"
	"pairs/fetcher"
	"pairs/notify"
	"pairs/storage"
	"pairs/storage/postgres"
	"pairs/storage/sqlite"
)

// Deps 运行所需的外部依赖，Close 负责全部释放
type Deps struct {
	Provider  fetcher.Provider
	Repo      storage.Repository
	Publisher notify.Publisher

	closers []func() error
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn().Err(err).Msg("释放资源失败")
		}
	}
}

// Open 按配置组装数据源链、存储与推送
// withStore=false 时不打开数据库（CLI 不落库）
func Open(ctx context.Context, cfg *config.Config, source backtest.DataSource, csvDir string, withStore bool) (*Deps, error) {
	d := &Deps{Publisher: notify.Nop{}}

	d.Provider = BuildProvider(cfg, source, csvDir)
	if source != backtest.SourceCSV && cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis 不可用，跳过行情缓存")
			_ = rdb.Close()
		} else {
			d.Provider = fetcher.NewRedisCache(rdb, d.Provider, "pairs", cfg.CacheTTL)
			d.closers = append(d.closers, rdb.Close)
			log.Info().Str("addr", cfg.RedisAddr).Msg("行情缓存已启用")
		}
	}

	if withStore && cfg.StorageDSN != "" {
		repo, err := OpenRepository(cfg.StorageDSN)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		d.Repo = repo
		d.closers = append(d.closers, repo.Close)
	}

	if cfg.NATSURL != "" {
		p, err := notify.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("NATS 连接失败，结果不推送")
		} else {
			d.Publisher = p
			d.closers = append(d.closers, p.Close)
		}
	}
	return d, nil
}

// BuildProvider csv 直接读本地文件；http 走限流熔断保护的路由数据源
func BuildProvider(cfg *config.Config, source backtest.DataSource, csvDir string) fetcher.Provider {
	if source == backtest.SourceCSV {
		return fetcher.NewCSVProvider(csvDir)
	}
	router := fetcher.NewRouter()
	if cfg.YahooURL != "" {
		router.Overseas = fetcher.NewYahooFetcher(cfg.YahooURL)
	}
	return fetcher.NewGuarded(router, fetcher.GuardOptions{
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	})
}

// OpenRepository postgres:// 或 postgresql:// 前缀走 Postgres，其余视为 sqlite 文件路径
func OpenRepository(dsn string) (storage.Repository, error) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgres.New(dsn)
	}
	return sqlite.New(strings.TrimPrefix(dsn, "sqlite://"))
}
