package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pairs/model"
)

// RedisCache 历史收盘价的读穿缓存
// 缓存读写失败只记日志，回落到上游数据源
type RedisCache struct {
	rdb    redis.Cmdable
	next   Provider
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb redis.Cmdable, next Provider, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "pairs"
	}
	return &RedisCache{rdb: rdb, next: next, prefix: prefix, ttl: ttl}
}

// Key 缓存键: <prefix>:closes:<symbol>:<start>:<end>
func (c *RedisCache) Key(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:closes:%s:%s:%s", c.prefix, symbol, dayKey(start), dayKey(end))
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("20060102")
}

func (c *RedisCache) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	key := c.Key(symbol, start, end)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var s model.PriceSeries
		if jerr := json.Unmarshal([]byte(raw), &s); jerr == nil {
			return s, nil
		}
		log.Warn().Str("key", key).Msg("缓存数据损坏，重新拉取")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Str("key", key).Msg("读取缓存失败")
	}

	s, err := c.next.FetchCloses(ctx, symbol, start, end)
	if err != nil {
		return model.PriceSeries{}, err
	}

	b, err := json.Marshal(s)
	if err == nil {
		if serr := c.rdb.Set(ctx, key, string(b), c.ttl).Err(); serr != nil {
			log.Warn().Err(serr).Str("key", key).Msg("写入缓存失败")
		}
	}
	return s, nil
}
