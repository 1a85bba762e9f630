package biz

import (
	"context"
	"time"

	"github.com/kart-io/sentinel-report/internal/report/metrics"
	"github.com/kart-io/sentinel-report/internal/report/store"
	"github.com/kart-io/sentinel-report/pkg/llm"
)

// 以下包装器在调用外部服务时记录耗时与错误。

type meteredEmbedder struct {
	llm.EmbeddingProvider
	metrics *metrics.ReportMetrics
}

func (e *meteredEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.EmbeddingProvider.Embed(ctx, texts)
	e.metrics.RecordEmbedding(time.Since(start), err)
	return vecs, err
}

func (e *meteredEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := e.EmbeddingProvider.EmbedSingle(ctx, text)
	e.metrics.RecordEmbedding(time.Since(start), err)
	return vec, err
}

type meteredChat struct {
	llm.ChatProvider
	metrics *metrics.ReportMetrics
}

func (c *meteredChat) record(start time.Time, resp *llm.ChatResponse, err error) {
	var prompt, completion int
	if resp != nil {
		prompt, completion = resp.TokenUsage.PromptTokens, resp.TokenUsage.CompletionTokens
	}
	c.metrics.RecordLLMCall(time.Since(start), prompt, completion, err)
}

func (c *meteredChat) Chat(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (*llm.ChatResponse, error) {
	start := time.Now()
	resp, err := c.ChatProvider.Chat(ctx, messages, opts...)
	c.record(start, resp, err)
	return resp, err
}

func (c *meteredChat) Generate(ctx context.Context, prompt, systemPrompt string, opts ...llm.CallOption) (*llm.ChatResponse, error) {
	start := time.Now()
	resp, err := c.ChatProvider.Generate(ctx, prompt, systemPrompt, opts...)
	c.record(start, resp, err)
	return resp, err
}

// meteredStore 只统计数据面调用（写入与检索）。
type meteredStore struct {
	store.VectorStore
	metrics *metrics.ReportMetrics
}

func (s *meteredStore) Upsert(ctx context.Context, collection string, records []*store.Record) (int, error) {
	start := time.Now()
	n, err := s.VectorStore.Upsert(ctx, collection, records)
	s.metrics.RecordVectorStore(time.Since(start), err)
	return n, err
}

func (s *meteredStore) Search(ctx context.Context, collection string, embedding []float32, topK int, filter *store.Filter) ([]*store.Match, error) {
	start := time.Now()
	matches, err := s.VectorStore.Search(ctx, collection, embedding, topK, filter)
	s.metrics.RecordVectorStore(time.Since(start), err)
	return matches, err
}
