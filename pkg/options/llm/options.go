// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-report/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// APIKeyEnv 未显式配置 api-key 时回退读取的环境变量。
const APIKeyEnv = "OPENAI_API_KEY"

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（openai, ollama）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，openai 为空时使用 SDK 默认地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数，0 表示失败即返回。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// Breaker 熔断配置。
	Breaker *BreakerOptions `json:"breaker" mapstructure:"breaker"`
}

// BreakerOptions 熔断器配置，默认关闭。
type BreakerOptions struct {
	Enabled          bool          `json:"enabled" mapstructure:"enabled"`
	MaxFailures      uint32        `json:"max-failures" mapstructure:"max-failures"`
	OpenTimeout      time.Duration `json:"open-timeout" mapstructure:"open-timeout"`
	HalfOpenRequests uint32        `json:"half-open-requests" mapstructure:"half-open-requests"`
}

// NewProviderOptions 创建默认 LLM 供应商配置。
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider: "openai",
		Timeout:  120 * time.Second,
		Breaker: &BreakerOptions{
			MaxFailures:      5,
			OpenTimeout:      30 * time.Second,
			HalfOpenRequests: 1,
		},
	}
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	opts := NewProviderOptions()
	opts.Model = "text-embedding-3-small"
	return opts
}

// NewChatOptions 创建默认 Chat 供应商配置。
func NewChatOptions() *ProviderOptions {
	opts := NewProviderOptions()
	opts.Model = "gpt-4"
	return opts
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// Configured 报告供应商是否具备发起调用所需的凭据。
func (o *ProviderOptions) Configured() bool {
	if o == nil || o.Provider == "" {
		return false
	}
	if o.Provider == "openai" {
		return o.APIKey != ""
	}
	return o.BaseURL != ""
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "LLM provider (openai, ollama).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "LLM API key, defaults to $"+APIKeyEnv+".")
	fs.StringVar(&o.Model, p+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "LLM maximum number of retries.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "LLM organization ID (optional).")

	fs.BoolVar(&o.Breaker.Enabled, p+"breaker.enabled", o.Breaker.Enabled, "Wrap the provider with a circuit breaker.")
	fs.Uint32Var(&o.Breaker.MaxFailures, p+"breaker.max-failures", o.Breaker.MaxFailures, "Consecutive failures before the breaker opens.")
	fs.DurationVar(&o.Breaker.OpenTimeout, p+"breaker.open-timeout", o.Breaker.OpenTimeout, "How long the breaker stays open.")
	fs.Uint32Var(&o.Breaker.HalfOpenRequests, p+"breaker.half-open-requests", o.Breaker.HalfOpenRequests, "Probe requests allowed while half-open.")
}

// Validate validates the LLM provider options.
// 缺失的 api-key 不在这里拦截，由服务在请求时以配置错误返回。
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Provider {
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unsupported llm provider %q", o.Provider))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max-retries must not be negative"))
	}
	if o.Breaker != nil && o.Breaker.Enabled && o.Breaker.MaxFailures == 0 {
		errs = append(errs, fmt.Errorf("breaker.max-failures must be positive"))
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.APIKey == "" && o.Provider == "openai" {
		o.APIKey = os.Getenv(APIKeyEnv)
	}
	if o.Provider == "ollama" && o.BaseURL == "" {
		o.BaseURL = "http://localhost:11434"
	}
	if o.Breaker == nil {
		o.Breaker = &BreakerOptions{}
	}
	return nil
}
