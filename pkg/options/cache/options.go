// Package cache provides cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-report/pkg/options"
	redisopts "github.com/kart-io/sentinel-report/pkg/options/redis"
)

var _ options.IOptions = (*Options)(nil)

// Options 缓存配置。
type Options struct {
	// Enabled 是否启用缓存，Redis 不可用时运行期自动关闭。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL 问答缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// EmbeddingTTL 向量缓存过期时间，0 表示不缓存向量。
	EmbeddingTTL time.Duration `json:"embedding-ttl" mapstructure:"embedding-ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis Redis 连接配置。
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions 创建默认缓存配置。
func NewOptions() *Options {
	return &Options{
		Enabled:      false,
		TTL:          1 * time.Hour,
		EmbeddingTTL: 24 * time.Hour,
		KeyPrefix:    "sentinel-report:",
		Redis:        redisopts.NewOptions(),
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "cache."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable the Redis backed cache.")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Answer cache TTL.")
	fs.DurationVar(&o.EmbeddingTTL, p+"embedding-ttl", o.EmbeddingTTL, "Embedding cache TTL, 0 disables embedding caching.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Cache key prefix.")

	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	o.Redis.AddFlags(fs, append(prefixes, "cache")...)
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive"))
	}
	if o.EmbeddingTTL < 0 {
		errs = append(errs, fmt.Errorf("cache embedding-ttl must not be negative"))
	}
	if o.Redis != nil {
		errs = append(errs, o.Redis.Validate()...)
	}
	return errs
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	return o.Redis.Complete()
}
