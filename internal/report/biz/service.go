package biz

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/sentinel-report/internal/report/metrics"
	"github.com/kart-io/sentinel-report/internal/report/store"
	"github.com/kart-io/sentinel-report/pkg/component/redis"
	"github.com/kart-io/sentinel-report/pkg/infra/pool"
	"github.com/kart-io/sentinel-report/pkg/infra/tracing"
	"github.com/kart-io/sentinel-report/pkg/llm"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

// Service 定义报告服务接口。
type Service interface {
	// Analyze 提取文本、分析结构并建立索引。
	Analyze(ctx context.Context, pdfData string) (*AnalyzeResult, error)
	// Generate 提取文本、建立索引、检索生成报告并排版为 DOCX。
	Generate(ctx context.Context, topic, pdfData string) (*GenerateResult, error)
	// Stats 返回集合、缓存与业务指标统计。
	Stats(ctx context.Context) (*Stats, error)
}

// Stats 是服务运行统计。
type Stats struct {
	Configured    bool               `json:"configured"`
	Reason        string             `json:"reason,omitempty"`
	Collection    string             `json:"collection,omitempty"`
	ChunkCount    int64              `json:"chunk_count"`
	EmbedProvider string             `json:"embed_provider,omitempty"`
	ChatProvider  string             `json:"chat_provider,omitempty"`
	Cache         *redis.HealthStats `json:"cache,omitempty"`
	Metrics       map[string]any     `json:"metrics,omitempty"`
}

// AnalyzeResult 是 Analyze 工作流的结果。
type AnalyzeResult struct {
	TOC        string
	Structure  string
	TextLength int
	Index      *IndexResult
}

// GenerateResult 是 Generate 工作流的结果。
type GenerateResult struct {
	Report   string
	DocxData string
	Index    *IndexResult
}

// ServiceConfig 报告服务配置。
type ServiceConfig struct {
	Collection        *Collection
	MaxPDFBytes       int64
	AnalyzerConfig    *AnalyzerConfig
	IndexerConfig     *IndexerConfig
	SynthesizerConfig *SynthesizerConfig
	// IsolateDocuments 为 true 时只检索本次上传文档的块。
	IsolateDocuments bool
	// EmbedWorkers 并发执行 Embedding 批次，可为空。
	EmbedWorkers *pool.Pool
	// Metrics 为空时使用进程级实例。
	Metrics *metrics.ReportMetrics
	// Cache 是 Embedding 缓存使用的 Redis 连接，可为空，仅用于统计。
	Cache *redis.Client
}

// ReportService 组合各组件提供完整的报告服务。
type ReportService struct {
	extractor   *Extractor
	analyzer    *Analyzer
	indexer     *Indexer
	synthesizer *Synthesizer
	formatter   *Formatter
	collection  *Collection
	isolate     bool

	store         store.VectorStore
	embedProvider string
	chatProvider  string
	cache         *redis.Client
	metrics       *metrics.ReportMetrics
}

// NewReportService 创建报告服务实例。
func NewReportService(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	chatProvider llm.ChatProvider,
	config *ServiceConfig,
) *ReportService {
	m := config.Metrics
	if m == nil {
		m = metrics.Default()
	}
	vs := &meteredStore{VectorStore: vectorStore, metrics: m}
	embedder := &meteredEmbedder{EmbeddingProvider: embedProvider, metrics: m}
	chat := &meteredChat{ChatProvider: chatProvider, metrics: m}

	return &ReportService{
		extractor:     NewExtractor(config.MaxPDFBytes),
		analyzer:      NewAnalyzer(chat, config.AnalyzerConfig),
		indexer:       NewIndexer(vs, embedder, config.IndexerConfig).WithWorkers(config.EmbedWorkers),
		synthesizer:   NewSynthesizer(vs, embedder, chat, config.SynthesizerConfig),
		formatter:     NewFormatter(),
		collection:    config.Collection,
		isolate:       config.IsolateDocuments,
		store:         vectorStore,
		embedProvider: embedProvider.Name(),
		chatProvider:  chatProvider.Name(),
		cache:         config.Cache,
		metrics:       m,
	}
}

// extract 解码并提取文本。
func (s *ReportService) extract(ctx context.Context, pdfData string) (text string, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.extract")
	defer func() { tracing.End(span, err) }()

	raw, err := DecodeDocument(pdfData)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("pdf.bytes", len(raw)))
	return s.extractor.Extract(ctx, raw)
}

func (s *ReportService) index(ctx context.Context, text string) (res *IndexResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.index", attribute.String("collection", s.collection.Name))
	defer func() { tracing.End(span, err) }()

	res, err = s.indexer.Index(ctx, s.collection, text)
	if err != nil {
		s.metrics.RecordIndexing(0, 0, err)
		return nil, err
	}
	s.metrics.RecordIndexing(1, res.Chunks, nil)
	span.SetAttributes(attribute.Int("chunks", res.Chunks))
	return res, nil
}

// Analyze 实现 Service。
func (s *ReportService) Analyze(ctx context.Context, pdfData string) (res *AnalyzeResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.analyze")
	start := time.Now()
	defer func() {
		s.metrics.RecordWorkflow(metrics.WorkflowAnalyze, time.Since(start), err)
		tracing.End(span, err)
	}()

	text, err := s.extract(ctx, pdfData)
	if err != nil {
		return nil, err
	}

	toc, err := s.analyzer.ExtractTableOfContents(ctx, text)
	if err != nil {
		return nil, err
	}
	structure, err := s.analyzer.SummarizeStructure(ctx, text)
	if err != nil {
		return nil, err
	}

	indexed, err := s.index(ctx, text)
	if err != nil {
		return nil, err
	}

	res = &AnalyzeResult{
		TOC:        toc,
		Structure:  structure,
		TextLength: utf8.RuneCountInString(text),
		Index:      indexed,
	}
	logger.Infow("document analyzed",
		"text_length", res.TextLength,
		"document_id", indexed.DocumentID,
		"trace_id", tracing.TraceID(ctx),
	)
	return res, nil
}

// Generate 实现 Service。
func (s *ReportService) Generate(ctx context.Context, topic, pdfData string) (res *GenerateResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.generate")
	start := time.Now()
	defer func() {
		s.metrics.RecordWorkflow(metrics.WorkflowGenerate, time.Since(start), err)
		tracing.End(span, err)
	}()

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apierrors.ErrValidation.WithMessage("topic is required")
	}

	text, err := s.extract(ctx, pdfData)
	if err != nil {
		return nil, err
	}

	indexed, err := s.index(ctx, text)
	if err != nil {
		return nil, err
	}

	var filter *RetrievalFilter
	if s.isolate {
		filter = &RetrievalFilter{DocumentID: indexed.DocumentID}
	}

	synthCtx, synthSpan := tracing.StartSpan(ctx, "report.synthesize", attribute.String("topic", topic))
	report, err := s.synthesizer.Synthesize(synthCtx, s.collection, topic, filter)
	tracing.End(synthSpan, err)
	if err != nil {
		return nil, err
	}

	docx, err := s.formatter.FormatEncoded(report, topic)
	if err != nil {
		return nil, err
	}

	logger.Infow("report generated",
		"topic", topic,
		"document_id", indexed.DocumentID,
		"report_length", utf8.RuneCountInString(report),
		"trace_id", tracing.TraceID(ctx),
	)
	return &GenerateResult{
		Report:   report,
		DocxData: docx,
		Index:    indexed,
	}, nil
}

// Stats 实现 Service。集合尚未创建时块数为 0。
func (s *ReportService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Configured:    true,
		Collection:    s.collection.Name,
		EmbedProvider: s.embedProvider,
		ChatProvider:  s.chatProvider,
		Metrics:       s.metrics.Stats(),
	}

	exists, err := s.store.HasCollection(ctx, s.collection.Name)
	if err != nil {
		return nil, apierrors.ErrVectorStore.WithCause(err)
	}
	if exists {
		if stats.ChunkCount, err = s.store.Count(ctx, s.collection.Name); err != nil {
			return nil, apierrors.ErrVectorStore.WithCause(err)
		}
	}

	if s.cache != nil {
		stats.Cache = s.cache.HealthWithStats(ctx)
	}
	return stats, nil
}

// UnconfiguredService 在缺少必需配置时替代 ReportService，所有工作流都返回 ErrConfiguration。
type UnconfiguredService struct {
	reason string
}

// NewUnconfiguredService 创建未配置的服务，reason 说明缺失的配置。
func NewUnconfiguredService(reason string) *UnconfiguredService {
	return &UnconfiguredService{reason: reason}
}

// Analyze 实现 Service。
func (s *UnconfiguredService) Analyze(context.Context, string) (*AnalyzeResult, error) {
	return nil, apierrors.ErrConfiguration.WithMessage(s.reason)
}

// Generate 实现 Service。
func (s *UnconfiguredService) Generate(context.Context, string, string) (*GenerateResult, error) {
	return nil, apierrors.ErrConfiguration.WithMessage(s.reason)
}

// Stats 实现 Service，只报告缺失的配置。
func (s *UnconfiguredService) Stats(context.Context) (*Stats, error) {
	return &Stats{Reason: s.reason}, nil
}

var (
	_ Service = (*ReportService)(nil)
	_ Service = (*UnconfiguredService)(nil)
)
