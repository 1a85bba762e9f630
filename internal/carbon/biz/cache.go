package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/sentinel-report/internal/pkg/textutil"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
	"github.com/kart-io/sentinel-report/pkg/utils/json"
)

// AnswerCacheConfig 回答缓存配置。
type AnswerCacheConfig struct {
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// AnswerCache 问答结果缓存。nil 的 *AnswerCache 表示缓存关闭。
type AnswerCache struct {
	redis  goredis.Cmdable
	config *AnswerCacheConfig
}

// NewAnswerCache 创建回答缓存实例。
func NewAnswerCache(redis goredis.Cmdable, config *AnswerCacheConfig) *AnswerCache {
	if config == nil {
		config = &AnswerCacheConfig{TTL: time.Hour}
	}
	return &AnswerCache{
		redis:  redis,
		config: config,
	}
}

// normalizeQuestion 统一大小写和空白，使等价问题命中同一个键。
func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Key 基于规范化后的问题生成缓存键（SHA256）。
func (c *AnswerCache) Key(question string) string {
	return c.config.KeyPrefix + "carbon:answer:" + textutil.HashString(normalizeQuestion(question))
}

// Get 读取缓存的回答，未命中时返回 nil, nil。
func (c *AnswerCache) Get(ctx context.Context, question string) (*Answer, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}

	key := c.Key(question)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			logger.Debugw("cache miss", "key", key)
			return nil, nil
		}
		logger.Warnw("failed to get from cache", "error", err.Error(), "key", key)
		return nil, apierrors.ErrCacheUnavailable.WithCause(err)
	}

	var answer Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		logger.Warnw("failed to unmarshal cached answer", "error", err.Error(), "key", key)
		// 删除损坏的缓存
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	logger.Infow("cache hit", "key", key, "answer_length", len(answer.Answer))
	return &answer, nil
}

// Set 写入回答。
func (c *AnswerCache) Set(ctx context.Context, question string, answer *Answer) error {
	if c == nil || c.redis == nil {
		return nil
	}

	key := c.Key(question)
	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", key)
		return apierrors.ErrCacheUnavailable.WithCause(err)
	}
	return nil
}
