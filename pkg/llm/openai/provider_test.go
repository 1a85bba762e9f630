package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/pkg/llm"
	"github.com/kart-io/sentinel-report/pkg/utils/json"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1/"
	return NewProviderWithConfig(cfg)
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := NewProvider(map[string]any{})
	require.Error(t, err)

	p, err := llm.NewProvider(ProviderName, map[string]any{llm.ConfigAPIKey: "k", llm.ConfigChatModel: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())
}

func TestChatSendsTemperatureAndSystemPrompt(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model       string    `json:"model"`
			Temperature float64   `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "gpt-4", req.Model)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Chapter 1\nChapter 2  "}}],
			"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`))
	})

	resp, err := p.Generate(context.Background(), "text", "extract the table of contents", llm.WithTemperature(0.3))
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1\nChapter 2", resp.Content)
	assert.Equal(t, 14, resp.TokenUsage.TotalTokens)
}

func TestEmbedRestoresOrder(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":1,"embedding":[0.0,1.0]},{"object":"embedding","index":0,"embedding":[1.0,0.0]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	})

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestChatUpstreamErrorIsReturned(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := p.Generate(context.Background(), "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat")
}
