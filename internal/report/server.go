// Package reportsvc provides the report API server implementation.
package reportsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	carbonbiz "github.com/kart-io/sentinel-report/internal/carbon/biz"
	carbonhandler "github.com/kart-io/sentinel-report/internal/carbon/handler"
	"github.com/kart-io/sentinel-report/internal/report/biz"
	"github.com/kart-io/sentinel-report/internal/report/handler"
	"github.com/kart-io/sentinel-report/internal/report/router"
	"github.com/kart-io/sentinel-report/internal/report/store"
	"github.com/kart-io/sentinel-report/pkg/component/milvus"
	"github.com/kart-io/sentinel-report/pkg/component/redis"
	"github.com/kart-io/sentinel-report/pkg/infra/app"
	"github.com/kart-io/sentinel-report/pkg/infra/pool"
	"github.com/kart-io/sentinel-report/pkg/infra/server"
	httpserver "github.com/kart-io/sentinel-report/pkg/infra/server/http"
	"github.com/kart-io/sentinel-report/pkg/infra/tracing"
	"github.com/kart-io/sentinel-report/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/sentinel-report/pkg/llm/ollama"
	_ "github.com/kart-io/sentinel-report/pkg/llm/openai"
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
)

// Name is the name of the application.
const Name = "sentinel-report"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions       *httpopts.Options
	LogOptions        *logopts.Options
	TracingOptions    *tracingopts.Options
	MilvusOptions     *milvusopts.Options
	EmbeddingOptions  *llmopts.ProviderOptions
	ChatOptions       *llmopts.ProviderOptions
	ReportOptions     *reportopts.Options
	CarbonOptions     *carbonopts.Options
	CacheOptions      *cacheopts.Options
	MiddlewareOptions *middlewareopts.Options
	ShutdownTimeout   time.Duration
}

// Server represents the report API server.
type Server struct {
	srv     *server.Manager
	http    *httpserver.Server
	closers []func(context.Context) error
}

// NewServer initializes and returns a new Server instance.
// Missing model or vector database settings do not stop the server: the
// report endpoints then answer with a configuration error and health keeps working.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	printBanner(cfg)
	s := &Server{}

	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting report service...")

	// 2. 初始化链路追踪
	if cfg.TracingOptions.ServiceVersion == "" {
		cfg.TracingOptions.ServiceVersion = app.GetVersion()
	}
	tracer, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.closers = append(s.closers, tracer.Shutdown)
	logger.Infow("Tracing initialized", "enabled", tracer.Enabled(), "exporter", cfg.TracingOptions.ExporterType)

	// 3. 初始化 Redis 客户端（用于缓存）
	var redisClient *redis.Client
	if cfg.CacheOptions.Enabled {
		redisClient, err = redis.New(ctx, cfg.CacheOptions.Redis)
		if err != nil {
			logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
			redisClient = nil
		} else {
			s.closers = append(s.closers, func(context.Context) error { return redisClient.Close() })
			logger.Infow("Redis cache initialized", "addr", cfg.CacheOptions.Redis.Addr(), "ttl", cfg.CacheOptions.TTL)
		}
	} else {
		logger.Info("Cache is disabled")
	}

	// 4. 初始化 LLM 供应商
	chatProvider, chatErr := newChatProvider(cfg.ChatOptions)
	if chatErr != nil {
		logger.Warnw("chat provider unavailable", "error", chatErr.Error())
	}
	embedProvider, embedErr := newEmbeddingProvider(cfg.EmbeddingOptions, redisClient, cfg.CacheOptions)
	if embedErr != nil {
		logger.Warnw("embedding provider unavailable", "error", embedErr.Error())
	}

	// 5. 初始化报告服务
	reportService, err := s.newReportService(ctx, cfg, chatProvider, embedProvider, chatErr, embedErr, redisClient)
	if err != nil {
		s.close(ctx)
		return nil, err
	}

	// 6. 初始化碳排放问答
	var carbonHandler *carbonhandler.CarbonHandler
	if cfg.CarbonOptions.Enabled {
		carbonHandler = carbonhandler.NewCarbonHandler(newCarbonService(cfg, chatProvider, chatErr, redisClient))
	}

	// 7. 初始化 HTTP 服务器并注册路由
	tracingService := ""
	if tracer.Enabled() {
		tracingService = cfg.TracingOptions.ServiceName
	}
	httpServer := httpserver.NewServer(cfg.HTTPOptions, httpserver.Config{
		Middleware:     cfg.MiddlewareOptions,
		TracingService: tracingService,
	})
	router.Register(httpServer.Engine(), handler.NewReportHandler(reportService), carbonHandler)
	if cfg.HTTPOptions.EnableSwagger {
		router.RegisterSwagger(httpServer.Engine())
	}

	s.http = httpServer
	s.srv = server.NewManager(cfg.ShutdownTimeout, httpServer)
	logger.Info("Report service is ready")
	return s, nil
}

// newReportService 在配置齐全时连接 Milvus，否则返回只报配置错误的服务。
func (s *Server) newReportService(
	ctx context.Context,
	cfg *Config,
	chatProvider llm.ChatProvider,
	embedProvider llm.EmbeddingProvider,
	chatErr, embedErr error,
	redisClient *redis.Client,
) (biz.Service, error) {
	var missing []string
	if chatErr != nil {
		missing = append(missing, chatErr.Error())
	}
	if embedErr != nil {
		missing = append(missing, embedErr.Error())
	}
	if !cfg.MilvusOptions.Configured() {
		missing = append(missing, "milvus address is not configured")
	}
	if len(missing) > 0 {
		reason := strings.Join(missing, "; ")
		logger.Warnw("report endpoints disabled until configured", "reason", reason)
		return biz.NewUnconfiguredService(reason), nil
	}

	milvusClient, err := milvus.New(ctx, cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	s.closers = append(s.closers, milvusClient.Close)
	logger.Infow("Milvus client initialized", "address", cfg.MilvusOptions.Address)

	ro := cfg.ReportOptions
	var workers *pool.Pool
	if ro.EmbedConcurrency > 1 {
		workers, err = pool.New("embedding", &pool.Config{
			Capacity:       ro.EmbedConcurrency,
			ExpiryDuration: time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding workers: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return workers.Release(5 * time.Second) })
	}

	collection := biz.NewCollection(ro.Collection, ro.EmbeddingDim).
		WithPlacement(cfg.MilvusOptions.Cloud, cfg.MilvusOptions.Region)

	svc := biz.NewReportService(store.NewMilvusStore(milvusClient), embedProvider, chatProvider, &biz.ServiceConfig{
		Collection:  collection,
		MaxPDFBytes: ro.MaxPDFBytes,
		AnalyzerConfig: &biz.AnalyzerConfig{
			MaxChars:             ro.AnalysisMaxChars,
			TOCTemperature:       ro.TOCTemperature,
			StructureTemperature: ro.StructureTemperature,
		},
		IndexerConfig: &biz.IndexerConfig{
			ChunkSize:    ro.ChunkSize,
			ChunkOverlap: ro.ChunkOverlap,
			BatchSize:    ro.EmbedBatchSize,
		},
		SynthesizerConfig: &biz.SynthesizerConfig{
			TopK:        ro.TopK,
			Temperature: ro.ReportTemperature,
		},
		IsolateDocuments: ro.IsolateDocuments,
		EmbedWorkers:     workers,
		Cache:            redisClient,
	})
	logger.Infow("Report service initialized",
		"collection", ro.Collection,
		"dimension", ro.EmbeddingDim,
		"isolate_documents", ro.IsolateDocuments,
	)
	return svc, nil
}

func newCarbonService(cfg *Config, chatProvider llm.ChatProvider, chatErr error, redisClient *redis.Client) carbonbiz.Service {
	co := cfg.CarbonOptions
	catalog, err := carbonbiz.LoadCatalog(co.DataDir, co.Files)
	if err != nil {
		logger.Warnw("carbon datasets unavailable", "dir", co.DataDir, "error", err.Error())
		catalog = carbonbiz.NewCatalog()
	}
	logger.Infow("Carbon datasets loaded", "dir", co.DataDir, "datasets", len(catalog.Tables()))

	if chatErr != nil {
		return carbonbiz.NewUnconfiguredService(catalog, chatErr.Error())
	}

	var cache *carbonbiz.AnswerCache
	if redisClient != nil {
		cache = carbonbiz.NewAnswerCache(redisClient.Client(), &carbonbiz.AnswerCacheConfig{
			TTL:       cfg.CacheOptions.TTL,
			KeyPrefix: cfg.CacheOptions.KeyPrefix,
		})
	}
	return carbonbiz.NewAgent(catalog, chatProvider,
		carbonbiz.NewChartRenderer(co.ChartWidth, co.ChartHeight),
		cache,
		&carbonbiz.AgentConfig{
			Temperature:   co.Temperature,
			MaxSampleRows: co.MaxSampleRows,
		})
}

// newChatProvider 创建 Chat 供应商，按配置包装熔断器。
func newChatProvider(opts *llmopts.ProviderOptions) (llm.ChatProvider, error) {
	provider, err := newProvider("chat", opts)
	if err != nil {
		return nil, err
	}
	logger.Infow("Chat provider initialized", "provider", opts.Provider, "model", opts.Model)
	return provider, nil
}

// newEmbeddingProvider 创建 Embedding 供应商，Redis 可用时缓存向量。
func newEmbeddingProvider(opts *llmopts.ProviderOptions, redisClient *redis.Client, cacheOpts *cacheopts.Options) (llm.EmbeddingProvider, error) {
	provider, err := newProvider("embedding", opts)
	if err != nil {
		return nil, err
	}
	logger.Infow("Embedding provider initialized", "provider", opts.Provider, "model", opts.Model)

	if redisClient == nil || cacheOpts.EmbeddingTTL <= 0 {
		return provider, nil
	}
	return llm.NewCachedEmbeddingProvider(provider, redisClient.Client(), &llm.EmbeddingCacheConfig{
		TTL:       cacheOpts.EmbeddingTTL,
		KeyPrefix: cacheOpts.KeyPrefix + "emb:",
	}), nil
}

func newProvider(role string, opts *llmopts.ProviderOptions) (llm.Provider, error) {
	if !opts.Configured() {
		return nil, fmt.Errorf("%s provider %s is not configured", role, opts.Provider)
	}
	provider, err := llm.NewProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s provider: %w", role, err)
	}
	if opts.Breaker != nil && opts.Breaker.Enabled {
		return resilience.Wrap(provider, &resilience.BreakerConfig{
			Name:             role + ":" + opts.Provider,
			MaxFailures:      opts.Breaker.MaxFailures,
			OpenTimeout:      opts.Breaker.OpenTimeout,
			HalfOpenRequests: opts.Breaker.HalfOpenRequests,
		}), nil
	}
	return provider, nil
}

// Run starts the server and listens for termination signals.
func (s *Server) Run(ctx context.Context) error {
	defer s.close(context.Background())
	return s.srv.Run(ctx)
}

func (s *Server) close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.Warnw("failed to release resource", "error", err.Error())
		}
	}
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  HTTP: %s\n", cfg.HTTPOptions.Addr)
	fmt.Printf("  Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("  Chat: %s (%s)\n", cfg.ChatOptions.Provider, cfg.ChatOptions.Model)
}
