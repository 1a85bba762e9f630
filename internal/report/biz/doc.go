// Package biz 实现 PDF 到报告的业务流程。
//
// 流程由若干独立组件组成：
//   - Extractor: PDF 字节 → 纯文本
//   - Analyzer: 文本 → 目录与结构摘要
//   - Indexer: 文本 → 分块 → 向量 → 集合
//   - Synthesizer: 主题 + 集合 → 检索 → 报告草稿
//   - Formatter: 草稿 → DOCX
//
// Service 把它们编排为 Analyze 与 Generate 两个工作流。
// 所有外部依赖通过 llm.ChatProvider、llm.EmbeddingProvider 和
// store.VectorStore 注入，失败一律以 *errors.Errno 返回。
package biz
