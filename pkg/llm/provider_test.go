package llm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider 模拟供应商实现，用于测试。
type mockProvider struct {
	name       string
	embedCalls [][]string
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.embedCalls = append(m.embedCalls, texts)
	result := make([][]float32, len(texts))
	for i, t := range texts {
		result[i] = []float32{float32(len(t)), 0.5}
	}
	return result, nil
}

func (m *mockProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (m *mockProvider) Chat(_ context.Context, _ []Message, opts ...CallOption) (*ChatResponse, error) {
	co := ApplyCallOptions(opts...)
	content := "mock response"
	if co.Temperature != nil && *co.Temperature > 0.5 {
		content = "creative response"
	}
	return &ChatResponse{Content: content}, nil
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, _ string, opts ...CallOption) (*ChatResponse, error) {
	return m.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("test-provider", func(config map[string]any) (Provider, error) {
		return &mockProvider{name: StringValue(config, "name", "test-provider")}, nil
	})

	provider, err := NewProvider("test-provider", map[string]any{"name": "custom-name"})
	require.NoError(t, err)
	assert.Equal(t, "custom-name", provider.Name())

	chat, err := NewChatProvider("test-provider", nil)
	require.NoError(t, err)
	resp, err := chat.Generate(context.Background(), "hi", "", WithTemperature(0.7))
	require.NoError(t, err)
	assert.Equal(t, "creative response", resp.Content)

	assert.Contains(t, ListProviders(), "test-provider")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("unknown-provider", nil)
	assert.Error(t, err)

	_, err = NewEmbeddingProvider("unknown-provider", nil)
	assert.Error(t, err)
}

func TestConfigValues(t *testing.T) {
	cfg := map[string]any{
		ConfigTimeout:    "3s",
		ConfigMaxRetries: int64(2),
		ConfigBaseURL:    "",
	}
	assert.Equal(t, 3*time.Second, DurationValue(cfg, ConfigTimeout, time.Second))
	assert.Equal(t, 2, IntValue(cfg, ConfigMaxRetries, 0))
	assert.Equal(t, "http://default", StringValue(cfg, ConfigBaseURL, "http://default"))
}

func TestCachedEmbeddingProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &mockProvider{name: "mock"}
	cached := NewCachedEmbeddingProvider(inner, rdb, nil)

	first, err := cached.Embed(context.Background(), []string{"alpha", "be"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{5, 0.5}, {2, 0.5}}, first)

	second, err := cached.Embed(context.Background(), []string{"be", "gamma"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 0.5}, {5, 0.5}}, second)

	// only the unseen text reaches the provider
	require.Len(t, inner.embedCalls, 2)
	assert.Equal(t, []string{"gamma"}, inner.embedCalls[1])
}

func TestCachedEmbeddingProviderRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	inner := &mockProvider{name: "mock"}
	vec, err := NewCachedEmbeddingProvider(inner, rdb, nil).EmbedSingle(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 0.5}, vec)
}
