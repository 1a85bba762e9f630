package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-report/internal/pkg/textutil"
	"github.com/kart-io/sentinel-report/pkg/llm"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

// DefaultAnalysisMaxChars 是结构分析时发送给模型的最大字符数。
// 目录或结构标记出现在该长度之后的文档只会被部分分析。
const DefaultAnalysisMaxChars = 4000

const (
	tocSystemPrompt       = "You are an assistant that extracts only the table of contents from a document's structure."
	structureSystemPrompt = "You are an assistant that analyzes and summarizes the format of documents."

	tocPromptTemplate = `Extract exactly the part of the following document that is its table of contents.
- Use numbering, roman numerals and heading patterns to pick out the entries.
- Do not include body text, output only the table of contents structure.
- Answer in the language of the document.

Document:
%s`

	structurePromptTemplate = `Briefly summarize the format of the following document (report structure, heading style, flow of sections).
- Describe how the document is written.
- Cover the table of contents, the body layout and the tone of language.
- Answer in the language of the document.

Document:
%s`
)

// AnalyzerConfig 结构分析器配置。
type AnalyzerConfig struct {
	// MaxChars 截断输入文本的字符数。
	MaxChars int
	// TOCTemperature 目录提取温度。
	TOCTemperature float64
	// StructureTemperature 结构摘要温度。
	StructureTemperature float64
}

// DefaultAnalyzerConfig 返回默认配置。
func DefaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		MaxChars:             DefaultAnalysisMaxChars,
		TOCTemperature:       0.3,
		StructureTemperature: 0.5,
	}
}

// Analyzer 通过 LLM 分析文档结构。
type Analyzer struct {
	chat   llm.ChatProvider
	config *AnalyzerConfig
}

// NewAnalyzer 创建结构分析器。
func NewAnalyzer(chat llm.ChatProvider, config *AnalyzerConfig) *Analyzer {
	if config == nil {
		config = DefaultAnalyzerConfig()
	}
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultAnalysisMaxChars
	}
	return &Analyzer{
		chat:   chat,
		config: config,
	}
}

// ExtractTableOfContents 提取文档目录。
func (a *Analyzer) ExtractTableOfContents(ctx context.Context, text string) (string, error) {
	return a.complete(ctx, "table of contents", tocSystemPrompt, tocPromptTemplate, text, a.config.TOCTemperature)
}

// SummarizeStructure 总结文档格式与结构。
func (a *Analyzer) SummarizeStructure(ctx context.Context, text string) (string, error) {
	return a.complete(ctx, "structure summary", structureSystemPrompt, structurePromptTemplate, text, a.config.StructureTemperature)
}

func (a *Analyzer) complete(ctx context.Context, task, system, template, text string, temperature float64) (string, error) {
	prompt := fmt.Sprintf(template, textutil.TruncateRunes(text, a.config.MaxChars))

	resp, err := a.chat.Generate(ctx, prompt, system, llm.WithTemperature(temperature))
	if err != nil {
		logger.Warnw("structure analysis failed", "task", task, "error", err.Error())
		return "", apierrors.ErrLLM.WithCause(fmt.Errorf("%s: %w", task, err))
	}
	return strings.TrimSpace(resp.Content), nil
}
