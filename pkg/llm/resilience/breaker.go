// Package resilience 为 LLM 供应商提供熔断包装。
// 熔断只做快速失败，不做重试：每次调用最多发送一次上游请求。
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/kart-io/logger"
	"github.com/sony/gobreaker"

	"github.com/kart-io/sentinel-report/pkg/llm"
)

// BreakerConfig 熔断器配置。
type BreakerConfig struct {
	// Name 用于日志。
	Name string
	// MaxFailures 连续失败次数达到该值时熔断。
	MaxFailures uint32
	// OpenTimeout 熔断后进入半开状态前的等待时间。
	OpenTimeout time.Duration
	// HalfOpenRequests 半开状态允许通过的请求数。
	HalfOpenRequests uint32
}

// DefaultBreakerConfig 返回默认配置。
func DefaultBreakerConfig(name string) *BreakerConfig {
	return &BreakerConfig{
		Name:             name,
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

func newBreaker(cfg *BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// 调用方取消不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("llm circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Provider 用熔断器包装一个完整供应商。
type Provider struct {
	inner llm.Provider
	cb    *gobreaker.CircuitBreaker
}

// Wrap 返回带熔断的供应商。cfg 为 nil 时使用默认配置。
func Wrap(inner llm.Provider, cfg *BreakerConfig) *Provider {
	if cfg == nil {
		cfg = DefaultBreakerConfig(inner.Name())
	}
	return &Provider{inner: inner, cb: newBreaker(cfg)}
}

// ErrOpen 熔断器处于打开状态时返回。
var ErrOpen = gobreaker.ErrOpenState

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// Name 返回底层供应商名称。
func (p *Provider) Name() string {
	return p.inner.Name()
}

// State 返回熔断器当前状态。
func (p *Provider) State() string {
	return p.cb.State().String()
}

// Embed 批量生成向量。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return execute(p.cb, func() ([][]float32, error) { return p.inner.Embed(ctx, texts) })
}

// EmbedSingle 为单个文本生成向量。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return execute(p.cb, func() ([]float32, error) { return p.inner.EmbedSingle(ctx, text) })
}

// Chat 进行多轮对话。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (*llm.ChatResponse, error) {
	return execute(p.cb, func() (*llm.ChatResponse, error) { return p.inner.Chat(ctx, messages, opts...) })
}

// Generate 单轮生成。
func (p *Provider) Generate(ctx context.Context, prompt, systemPrompt string, opts ...llm.CallOption) (*llm.ChatResponse, error) {
	return execute(p.cb, func() (*llm.ChatResponse, error) { return p.inner.Generate(ctx, prompt, systemPrompt, opts...) })
}

var _ llm.Provider = (*Provider)(nil)
