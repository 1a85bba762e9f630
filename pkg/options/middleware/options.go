// Package middleware provides middleware configuration options.
package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-report/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 汇总 HTTP 中间件配置。
// 字段为 nil 表示不启用该中间件，Recovery 与 RequestID 始终启用。
type Options struct {
	Recovery  *RecoveryOptions  `json:"recovery" mapstructure:"recovery"`
	RequestID *RequestIDOptions `json:"request-id" mapstructure:"request-id"`
	Logger    *LoggerOptions    `json:"logger" mapstructure:"logger"`
	CORS      *CORSOptions      `json:"cors" mapstructure:"cors"`
	RateLimit *RateLimitOptions `json:"rate-limit" mapstructure:"rate-limit"`
}

// NewOptions 创建默认中间件选项，限流默认关闭。
func NewOptions() *Options {
	return &Options{
		Recovery:  NewRecoveryOptions(),
		RequestID: NewRequestIDOptions(),
		Logger:    NewLoggerOptions(),
		CORS:      NewCORSOptions(),
		RateLimit: NewRateLimitOptions(),
	}
}

// AddFlags adds flags for every middleware to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	if o.Recovery != nil {
		o.Recovery.AddFlags(fs, prefixes...)
	}
	if o.RequestID != nil {
		o.RequestID.AddFlags(fs, prefixes...)
	}
	if o.Logger != nil {
		o.Logger.AddFlags(fs, prefixes...)
	}
	if o.CORS != nil {
		o.CORS.AddFlags(fs, prefixes...)
	}
	if o.RateLimit != nil {
		o.RateLimit.AddFlags(fs, prefixes...)
	}
}

// Validate validates the enabled middleware options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	errs = append(errs, o.RequestID.Validate()...)
	errs = append(errs, o.CORS.Validate()...)
	errs = append(errs, o.RateLimit.Validate()...)
	return errs
}

// Complete completes the middleware options with defaults.
func (o *Options) Complete() error {
	if o.Recovery == nil {
		o.Recovery = NewRecoveryOptions()
	}
	if o.RequestID == nil {
		o.RequestID = NewRequestIDOptions()
	}
	return nil
}
