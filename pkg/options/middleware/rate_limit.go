package middleware

import (
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-report/pkg/options"
)

// RateLimitOptions 定义按客户端 IP 的内存限流配置。
type RateLimitOptions struct {
	// Enabled 是否启用限流。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Limit 是时间窗口内允许的最大请求数，同时作为突发容量。
	Limit int `json:"limit" mapstructure:"limit"`

	// Window 是限流时间窗口。
	Window time.Duration `json:"window" mapstructure:"window"`

	// SkipPaths 是跳过限流的路径列表。
	SkipPaths []string `json:"skip-paths" mapstructure:"skip-paths"`
}

// NewRateLimitOptions 创建默认的限流选项。
func NewRateLimitOptions() *RateLimitOptions {
	return &RateLimitOptions{
		Limit:     60,
		Window:    time.Minute,
		SkipPaths: []string{"/api/health"},
	}
}

// AddFlags 为限流选项添加标志到指定的 FlagSet。
func (o *RateLimitOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "middleware.rate-limit."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable per client rate limiting.")
	fs.IntVar(&o.Limit, p+"limit", o.Limit, "Maximum number of requests allowed within the time window.")
	fs.DurationVar(&o.Window, p+"window", o.Window, "Time window for rate limiting.")
	fs.StringSliceVar(&o.SkipPaths, p+"skip-paths", o.SkipPaths, "Paths excluded from rate limiting.")
}

// Validate 验证限流选项。
func (o *RateLimitOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.Limit <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	if o.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	return errs
}
