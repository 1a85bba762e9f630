package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-report/internal/report/store"
	"github.com/kart-io/sentinel-report/pkg/llm"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

const (
	queryTemplate = `Write a report on '%s'.
- Follow the composition and format of the reference documents.
- Keep their table of contents pattern, tone and direction of analysis, and write content that fits the new topic.
- The reference documents are for reference only, do not take content from them.`

	// stuffPromptTemplate 把所有检索到的片段直接放入上下文。
	stuffPromptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`
)

// RetrievalFilter 限定检索范围。
type RetrievalFilter struct {
	// DocumentID 非空时只检索该文档的块。
	DocumentID string
}

// SynthesizerConfig 报告生成器配置。
type SynthesizerConfig struct {
	// TopK 检索的块数。
	TopK int
	// Temperature 生成温度。
	Temperature float64
}

// DefaultSynthesizerConfig 返回默认配置。
func DefaultSynthesizerConfig() *SynthesizerConfig {
	return &SynthesizerConfig{
		TopK:        5,
		Temperature: 0.7,
	}
}

// Synthesizer 基于检索结果生成报告草稿。
type Synthesizer struct {
	store    store.VectorStore
	embedder llm.EmbeddingProvider
	chat     llm.ChatProvider
	config   *SynthesizerConfig
}

// NewSynthesizer 创建报告生成器。
func NewSynthesizer(vs store.VectorStore, embedder llm.EmbeddingProvider, chat llm.ChatProvider, config *SynthesizerConfig) *Synthesizer {
	if config == nil {
		config = DefaultSynthesizerConfig()
	}
	return &Synthesizer{
		store:    vs,
		embedder: embedder,
		chat:     chat,
		config:   config,
	}
}

// ReportQuery 返回针对主题的报告生成指令。
func ReportQuery(topic string) string {
	return fmt.Sprintf(queryTemplate, topic)
}

// Synthesize 检索与主题最相关的块，并一次性交给模型生成报告。
func (s *Synthesizer) Synthesize(ctx context.Context, coll *Collection, topic string, filter *RetrievalFilter) (string, error) {
	query := ReportQuery(topic)

	vec, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return "", apierrors.ErrEmbedding.WithCause(err)
	}
	if len(vec) != coll.Dimension {
		return "", apierrors.ErrDimensionMismatch.WithCause(
			fmt.Errorf("query embedding has %d dimensions, collection %s expects %d", len(vec), coll.Name, coll.Dimension))
	}

	var sf *store.Filter
	if filter != nil && filter.DocumentID != "" {
		sf = &store.Filter{DocumentID: filter.DocumentID}
	}
	matches, err := s.store.Search(ctx, coll.Name, vec, s.config.TopK, sf)
	if err != nil {
		return "", storeError(err)
	}

	prompt := fmt.Sprintf(stuffPromptTemplate, joinMatches(matches), query)
	resp, err := s.chat.Generate(ctx, prompt, "", llm.WithTemperature(s.config.Temperature))
	if err != nil {
		return "", apierrors.ErrLLM.WithCause(err)
	}

	logger.Infow("report drafted",
		"collection", coll.Name,
		"retrieved", len(matches),
		"length", len(resp.Content),
		"total_tokens", resp.TokenUsage.TotalTokens,
	)
	return strings.TrimSpace(resp.Content), nil
}

func joinMatches(matches []*store.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
