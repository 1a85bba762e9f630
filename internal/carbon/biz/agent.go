package biz

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/sentinel-report/pkg/infra/tracing"
	"github.com/kart-io/sentinel-report/pkg/llm"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

const systemPromptTemplate = `당신은 한국의 온실가스 배출 데이터를 분석하는 전문가입니다.
아래 데이터셋만을 근거로 질문에 한국어로 답하세요. 데이터에 없는 내용은 추측하지 말고 없다고 답하세요.
수치를 인용할 때는 연도와 단위를 함께 밝히세요.

%s`

// Service 定义碳排放问答接口。
type Service interface {
	// Ask 回答问题，需要时附带图表。
	Ask(ctx context.Context, question string) (*Answer, error)
	// Datasets 返回已加载的数据集概要。
	Datasets() []DatasetSummary
}

// Answer 是一次问答的结果。
type Answer struct {
	Answer    string    `json:"answer"`
	Intent    QueryType `json:"intent"`
	ChartType ChartType `json:"chart_type"`
	// ChartPNG 为 base64 编码的 PNG，不需要图表时为空。
	ChartPNG string `json:"chart_png,omitempty"`
}

// AgentConfig 问答配置。
type AgentConfig struct {
	// Temperature 回答采样温度。
	Temperature float64
	// MaxSampleRows 每个数据集写入提示词的样例行数。
	MaxSampleRows int
}

// DefaultAgentConfig 返回默认配置。
func DefaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		Temperature:   0.1,
		MaxSampleRows: 5,
	}
}

// Agent 基于已加载的数据集回答碳排放问题。
type Agent struct {
	catalog  *Catalog
	chat     llm.ChatProvider
	renderer *ChartRenderer
	cache    *AnswerCache
	config   *AgentConfig
}

// NewAgent 创建问答实例。cache 可以为 nil。
func NewAgent(catalog *Catalog, chat llm.ChatProvider, renderer *ChartRenderer, cache *AnswerCache, config *AgentConfig) *Agent {
	if config == nil {
		config = DefaultAgentConfig()
	}
	if renderer == nil {
		renderer = NewChartRenderer(0, 0)
	}
	return &Agent{
		catalog:  catalog,
		chat:     chat,
		renderer: renderer,
		cache:    cache,
		config:   config,
	}
}

// Datasets 实现 Service。
func (a *Agent) Datasets() []DatasetSummary {
	return a.catalog.Summaries()
}

// Ask 实现 Service。
func (a *Agent) Ask(ctx context.Context, question string) (answer *Answer, err error) {
	ctx, span := tracing.StartSpan(ctx, "carbon.ask")
	defer func() { tracing.End(span, err) }()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apierrors.ErrCarbonQuestion
	}
	if len(a.catalog.Tables()) == 0 {
		return nil, apierrors.ErrCarbonNoDataset.WithMessage("no carbon dataset is loaded")
	}

	if cached, cacheErr := a.cache.Get(ctx, question); cacheErr == nil && cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	intent := AnalyzeQuestion(question)
	span.SetAttributes(
		attribute.String("intent", string(intent.Type)),
		attribute.String("chart", string(intent.Chart)),
	)

	resp, err := a.chat.Generate(ctx, userPrompt(question, intent, a.catalog.Main(), a.config.MaxSampleRows), a.systemPrompt(),
		llm.WithTemperature(a.config.Temperature))
	if err != nil {
		return nil, apierrors.ErrLLM.WithCause(err)
	}

	answer = &Answer{
		Answer:    strings.TrimSpace(resp.Content),
		Intent:    intent.Type,
		ChartType: intent.Chart,
	}

	if NeedsVisualization(question) {
		png, renderErr := a.renderer.Render(a.catalog.Main(), intent)
		if renderErr != nil {
			// 图表失败不影响文字回答
			logger.Warnw("chart rendering failed", "chart", intent.Chart, "error", renderErr.Error())
		} else {
			answer.ChartPNG = base64.StdEncoding.EncodeToString(png)
		}
	}

	_ = a.cache.Set(ctx, question, answer)

	logger.Infow("carbon question answered",
		"intent", intent.Type,
		"chart", answer.ChartPNG != "",
		"trace_id", tracing.TraceID(ctx),
	)
	return answer, nil
}

// systemPrompt 列出每个数据集的结构和样例行。
func (a *Agent) systemPrompt() string {
	var b strings.Builder
	for _, t := range a.catalog.Tables() {
		fmt.Fprintf(&b, "## %s\n%s, %d행\n", t.Name, t.Description, len(t.Rows))
		b.WriteString(strings.Join(t.Columns, ","))
		b.WriteByte('\n')
		for i, row := range t.Rows {
			if i == a.config.MaxSampleRows {
				break
			}
			b.WriteString(strings.Join(row, ","))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return fmt.Sprintf(systemPromptTemplate, strings.TrimSpace(b.String()))
}

// relevantRows 选出与问题相关的行：提到年份时取这些年份（趋势问题取年份区间），
// 否则或没有匹配时取最近 n 个年份。没有年份列的表取前 n 行。
func relevantRows(t *Table, intent *Intent, n int) [][]string {
	n = max(n, 0)
	year := t.YearIndex()
	if year < 0 {
		return t.Rows[:min(n, len(t.Rows))]
	}

	if len(intent.Years) > 0 {
		span := intent.Type == QueryTrend && len(intent.Years) >= 2
		var rows [][]string
		for r := range t.Rows {
			y, ok := t.Float(r, year)
			if !ok {
				continue
			}
			if (span && inRange(int(y), intent.Years)) || slices.Contains(intent.Years, int(y)) {
				rows = append(rows, t.Rows[r])
			}
		}
		if len(rows) > 0 {
			return rows
		}
	}

	type yearRow struct{ year, row int }
	var dated []yearRow
	for r := range t.Rows {
		if y, ok := t.Float(r, year); ok {
			dated = append(dated, yearRow{int(y), r})
		}
	}
	sort.Slice(dated, func(i, j int) bool { return dated[i].year > dated[j].year })
	dated = dated[:min(n, len(dated))]
	sort.Slice(dated, func(i, j int) bool { return dated[i].year < dated[j].year })

	rows := make([][]string, 0, len(dated))
	for _, d := range dated {
		rows = append(rows, t.Rows[d.row])
	}
	return rows
}

func userPrompt(question string, intent *Intent, main *Table, n int) string {
	var hints []string
	hints = append(hints, "질문 유형: "+string(intent.Type))
	if len(intent.Years) > 0 {
		years := make([]string, len(intent.Years))
		for i, y := range intent.Years {
			years[i] = fmt.Sprintf("%d", y)
		}
		hints = append(hints, "연도: "+strings.Join(years, ", "))
	}
	if len(intent.Sectors) > 0 {
		hints = append(hints, "분야: "+strings.Join(intent.Sectors, ", "))
	}
	hints = append(hints, "지표: "+strings.Join(intent.Metrics, ", "), "집계: "+intent.Aggregation)

	prompt := fmt.Sprintf("%s\n\n(분석 힌트: %s)", question, strings.Join(hints, " / "))
	if main == nil {
		return prompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n관련 데이터 (%s):\n%s\n", prompt, main.Name, strings.Join(main.Columns, ","))
	for _, row := range relevantRows(main, intent, n) {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// UnconfiguredService 在缺少模型配置时替代 Agent：数据集仍可列出，提问返回 ErrConfiguration。
type UnconfiguredService struct {
	catalog *Catalog
	reason  string
}

// NewUnconfiguredService 创建未配置的问答服务。
func NewUnconfiguredService(catalog *Catalog, reason string) *UnconfiguredService {
	return &UnconfiguredService{catalog: catalog, reason: reason}
}

// Ask 实现 Service。
func (s *UnconfiguredService) Ask(context.Context, string) (*Answer, error) {
	return nil, apierrors.ErrConfiguration.WithMessage(s.reason)
}

// Datasets 实现 Service。
func (s *UnconfiguredService) Datasets() []DatasetSummary {
	return s.catalog.Summaries()
}

var (
	_ Service = (*Agent)(nil)
	_ Service = (*UnconfiguredService)(nil)
)
