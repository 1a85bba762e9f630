package reportsvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/pkg/llm/resilience"
	cacheopts "github.com/kart-io/sentinel-report/pkg/options/cache"
	carbonopts "github.com/kart-io/sentinel-report/pkg/options/carbon"
	llmopts "github.com/kart-io/sentinel-report/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-report/pkg/options/logger"
	middlewareopts "github.com/kart-io/sentinel-report/pkg/options/middleware"
	milvusopts "github.com/kart-io/sentinel-report/pkg/options/milvus"
	reportopts "github.com/kart-io/sentinel-report/pkg/options/report"
	httpopts "github.com/kart-io/sentinel-report/pkg/options/server/http"
	tracingopts "github.com/kart-io/sentinel-report/pkg/options/tracing"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv(llmopts.APIKeyEnv, "")
	t.Setenv(milvusopts.AddressEnv, "")

	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = "127.0.0.1:0"
	httpOpts.Mode = gin.TestMode

	dataDir := t.TempDir()
	csv := "연도,총배출량,에너지\n2019,701.2,611.5\n2020,656.2,569.9\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "인벤토리.csv"), []byte(csv), 0o600))
	carbon := carbonopts.NewOptions()
	carbon.DataDir = dataDir

	cfg := &Config{
		HTTPOptions:       httpOpts,
		LogOptions:        logopts.NewOptions(),
		TracingOptions:    tracingopts.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		EmbeddingOptions:  llmopts.NewEmbeddingOptions(),
		ChatOptions:       llmopts.NewChatOptions(),
		ReportOptions:     reportopts.NewOptions(),
		CarbonOptions:     carbon,
		CacheOptions:      cacheopts.NewOptions(),
		MiddlewareOptions: middlewareopts.NewOptions(),
		ShutdownTimeout:   time.Second,
	}
	for _, complete := range []func() error{
		cfg.MilvusOptions.Complete,
		cfg.EmbeddingOptions.Complete,
		cfg.ChatOptions.Complete,
		cfg.CacheOptions.Complete,
	} {
		require.NoError(t, complete())
	}
	return cfg
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.http.Engine().ServeHTTP(w, req)
	return w
}

func TestNewServerWithoutCredentials(t *testing.T) {
	s, err := testConfig(t).NewServer(context.Background())
	require.NoError(t, err)
	defer s.close(context.Background())

	w := serve(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = serve(s, http.MethodPost, "/api/analyze-document", `{"pdf_data":"JVBERi0xLjQ="}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":`+strconv.Itoa(apierrors.ErrConfiguration.Code))

	w = serve(s, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"configured":false`)

	w = serve(s, http.MethodGet, "/swagger/doc.json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/generate-report")

	w = serve(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sentinel_report_uptime_seconds")

	// 数据集无需模型即可列出，问答返回配置错误
	w = serve(s, http.MethodGet, "/api/carbon/datasets", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "인벤토리")

	w = serve(s, http.MethodPost, "/api/carbon/chat", `{"question":"2020년 배출량은?"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNewServerCarbonDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.CarbonOptions.Enabled = false
	cfg.HTTPOptions.EnableSwagger = false

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	defer s.close(context.Background())

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/carbon/datasets", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/swagger/doc.json", "").Code)
}

func TestNewServerCacheUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheOptions.Enabled = true
	cfg.CacheOptions.Redis.Host = "127.0.0.1"
	cfg.CacheOptions.Redis.Port = 1
	cfg.CacheOptions.Redis.DialTimeout = 100 * time.Millisecond

	// Redis 不可用时降级为无缓存
	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	defer s.close(context.Background())
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/health", "").Code)
}

func TestNewProvider(t *testing.T) {
	opts := llmopts.NewChatOptions()
	_, err := newProvider("chat", opts)
	assert.ErrorContains(t, err, "not configured")

	opts.APIKey = "sk-test"
	require.NoError(t, opts.Complete())
	provider, err := newProvider("chat", opts)
	require.NoError(t, err)
	assert.NotNil(t, provider)

	opts.Breaker.Enabled = true
	provider, err = newProvider("chat", opts)
	require.NoError(t, err)
	assert.IsType(t, &resilience.Provider{}, provider)
}
