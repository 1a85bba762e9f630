// Package metrics 提供报告服务的业务指标收集。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Workflow 是一次请求对应的工作流名称。
type Workflow string

const (
	WorkflowAnalyze  Workflow = "analyze"
	WorkflowGenerate Workflow = "generate"
)

// counter 是带累计耗时的调用计数。
type counter struct {
	total    atomic.Uint64
	errors   atomic.Uint64
	duration atomic.Int64 // 纳秒
}

func (c *counter) record(d time.Duration, err error) {
	c.total.Add(1)
	if err != nil {
		c.errors.Add(1)
		return
	}
	c.duration.Add(int64(d))
}

func (c *counter) stats() map[string]any {
	total := c.total.Load()
	errs := c.errors.Load()
	secs := time.Duration(c.duration.Load()).Seconds()
	avg := 0.0
	if ok := total - errs; ok > 0 {
		avg = secs / float64(ok)
	}
	return map[string]any{
		"total":               total,
		"errors":              errs,
		"total_duration_secs": secs,
		"avg_duration_secs":   avg,
	}
}

// ReportMetrics 报告服务业务指标。
type ReportMetrics struct {
	// 工作流指标
	analyze  counter
	generate counter

	// 外部调用指标
	embedding   counter // Embedding 批次调用
	llm         counter // Chat 调用
	vectorStore counter // 向量库写入与检索

	llmTokensPrompt     atomic.Uint64
	llmTokensCompletion atomic.Uint64

	// 索引指标
	documentsIndexed atomic.Uint64
	chunksIndexed    atomic.Uint64
	indexErrors      atomic.Uint64

	startTime time.Time
}

var (
	defaultMetrics *ReportMetrics
	defaultOnce    sync.Once
)

// Default 返回进程级指标实例。
func Default() *ReportMetrics {
	defaultOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New 创建独立的指标实例。
func New() *ReportMetrics {
	return &ReportMetrics{startTime: time.Now()}
}

// RecordWorkflow 记录一次 analyze 或 generate 请求。
func (m *ReportMetrics) RecordWorkflow(w Workflow, d time.Duration, err error) {
	switch w {
	case WorkflowAnalyze:
		m.analyze.record(d, err)
	case WorkflowGenerate:
		m.generate.record(d, err)
	}
}

// RecordEmbedding 记录一次 Embedding 调用。
func (m *ReportMetrics) RecordEmbedding(d time.Duration, err error) {
	m.embedding.record(d, err)
}

// RecordLLMCall 记录一次 Chat 调用及其 token 消耗。
func (m *ReportMetrics) RecordLLMCall(d time.Duration, promptTokens, completionTokens int, err error) {
	m.llm.record(d, err)
	if err != nil {
		return
	}
	if promptTokens > 0 {
		m.llmTokensPrompt.Add(uint64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensCompletion.Add(uint64(completionTokens))
	}
}

// RecordVectorStore 记录一次向量库调用。
func (m *ReportMetrics) RecordVectorStore(d time.Duration, err error) {
	m.vectorStore.record(d, err)
}

// RecordIndexing 记录一次索引。
func (m *ReportMetrics) RecordIndexing(documents, chunks int, err error) {
	if err != nil {
		m.indexErrors.Add(1)
		return
	}
	m.documentsIndexed.Add(uint64(documents))
	m.chunksIndexed.Add(uint64(chunks))
}

// Stats 返回当前统计信息（用于 API）。
func (m *ReportMetrics) Stats() map[string]any {
	llm := m.llm.stats()
	llm["tokens_prompt"] = m.llmTokensPrompt.Load()
	llm["tokens_completion"] = m.llmTokensCompletion.Load()

	return map[string]any{
		"workflows": map[string]any{
			string(WorkflowAnalyze):  m.analyze.stats(),
			string(WorkflowGenerate): m.generate.stats(),
		},
		"embedding":    m.embedding.stats(),
		"llm":          llm,
		"vector_store": m.vectorStore.stats(),
		"indexing": map[string]any{
			"documents_indexed": m.documentsIndexed.Load(),
			"chunks_indexed":    m.chunksIndexed.Load(),
			"errors":            m.indexErrors.Load(),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Export 导出 Prometheus 文本格式指标。
func (m *ReportMetrics) Export(namespace string) string {
	var sb strings.Builder

	writeCounter := func(name, help string, v uint64) {
		fmt.Fprintf(&sb, "# HELP %s_%s %s\n", namespace, name, help)
		fmt.Fprintf(&sb, "# TYPE %s_%s counter\n", namespace, name)
		fmt.Fprintf(&sb, "%s_%s %d\n\n", namespace, name, v)
	}
	writeCalls := func(name, what string, c *counter) {
		writeCounter(name+"_total", "Total number of "+what+".", c.total.Load())
		writeCounter(name+"_errors_total", "Number of failed "+what+".", c.errors.Load())
		fmt.Fprintf(&sb, "# HELP %s_%s_duration_seconds_total Total duration of successful %s.\n", namespace, name, what)
		fmt.Fprintf(&sb, "# TYPE %s_%s_duration_seconds_total counter\n", namespace, name)
		fmt.Fprintf(&sb, "%s_%s_duration_seconds_total %.6f\n\n", namespace, name, time.Duration(c.duration.Load()).Seconds())
	}

	writeCalls("analyze_requests", "analyze requests", &m.analyze)
	writeCalls("generate_requests", "generate requests", &m.generate)
	writeCalls("embedding_calls", "embedding calls", &m.embedding)
	writeCalls("llm_calls", "LLM calls", &m.llm)
	writeCalls("vector_store_calls", "vector store calls", &m.vectorStore)

	writeCounter("llm_tokens_prompt_total", "Prompt tokens consumed.", m.llmTokensPrompt.Load())
	writeCounter("llm_tokens_completion_total", "Completion tokens consumed.", m.llmTokensCompletion.Load())
	writeCounter("documents_indexed_total", "Total documents indexed.", m.documentsIndexed.Load())
	writeCounter("chunks_indexed_total", "Total chunks indexed.", m.chunksIndexed.Load())
	writeCounter("index_errors_total", "Number of indexing errors.", m.indexErrors.Load())

	fmt.Fprintf(&sb, "# HELP %s_uptime_seconds Service uptime in seconds.\n", namespace)
	fmt.Fprintf(&sb, "# TYPE %s_uptime_seconds gauge\n", namespace)
	fmt.Fprintf(&sb, "%s_uptime_seconds %.2f\n", namespace, time.Since(m.startTime).Seconds())
	return sb.String()
}
