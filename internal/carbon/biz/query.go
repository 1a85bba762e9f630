package biz

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kart-io/sentinel-report/internal/pkg/textutil"
)

// QueryType 问题意图。
type QueryType string

const (
	QueryComparison    QueryType = "comparison"
	QueryTrend         QueryType = "trend"
	QueryRanking       QueryType = "ranking"
	QueryStatistics    QueryType = "statistics"
	QueryCorrelation   QueryType = "correlation"
	QuerySpecificValue QueryType = "specific_value"
	QuerySummary       QueryType = "summary"
)

// ChartType 图表类型。
type ChartType string

const (
	ChartLine    ChartType = "line"
	ChartBar     ChartType = "bar"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
)

type keywordGroup struct {
	name     string
	keywords []string
}

const (
	minYear = 1990
	maxYear = 2030
)

var (
	comparisonKeywords  = []string{"비교", "차이", "대비", "vs", "보다", "대조"}
	trendKeywords       = []string{"추이", "변화", "트렌드", "경향", "증가", "감소", "변동", "추세", "흐름", "패턴", "증감"}
	rankingKeywords     = []string{"순위", "많은", "적은", "높은", "낮은", "최대", "최소", "가장", "상위", "하위", "1위", "랭킹"}
	statisticsKeywords  = []string{"평균", "총합", "합계", "전체", "통계", "분포", "비율", "비중", "퍼센트", "%"}
	correlationKeywords = []string{"상관", "관계", "연관", "영향", "관련"}
	shareKeywords       = []string{"비율", "비중", "분포", "퍼센트", "%", "share", "ratio"}

	chartKeywords = []string{
		"그래프", "차트", "그려", "시각화", "도표", "도식", "보여줘", "보여주세요",
		"그림", "표현해", "비교해줘", "비교해주세요", "플롯", "chart", "graph", "plot",
	}

	sectorKeywords = []keywordGroup{
		{"에너지", []string{"에너지", "전력", "발전", "연료"}},
		{"산업", []string{"산업", "제조", "공장", "생산"}},
		{"수송", []string{"수송", "교통", "운송", "자동차", "항공", "선박"}},
		{"건물", []string{"건물", "주거", "상업", "난방", "냉방"}},
		{"농업", []string{"농업", "축산", "임업", "농림"}},
		{"폐기물", []string{"폐기물", "쓰레기", "폐기", "재활용"}},
	}

	metricKeywords = []keywordGroup{
		{"배출량", []string{"배출", "방출", "co2", "온실가스", "ghg"}},
		{"할당량", []string{"할당", "배정"}},
		{"거래량", []string{"거래", "매매"}},
		{"감축량", []string{"감축", "절약", "저감"}},
	}

	// 没有作图关键词时，这些词也会触发图表。
	visualPatternKeywords = []string{
		"추이", "변화", "트렌드", "경향", "증가", "감소", "변동",
		"순위", "랭킹", "많은", "적은", "최대", "최소", "상위", "하위",
	}

	yearPattern          = regexp.MustCompile(`\d{4}`)
	specificValuePattern = regexp.MustCompile(`얼마|몇|수치|값|량`)
	yearComparePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}년.*\d{4}년.*비교`),
		regexp.MustCompile(`비교.*\d{4}년.*\d{4}년`),
		regexp.MustCompile(`\d{4}.*(vs|대비).*\d{4}`),
		regexp.MustCompile(`차이.*\d{4}.*\d{4}`),
	}
)

// Intent 是问题分析结果。
type Intent struct {
	Type        QueryType `json:"type"`
	Chart       ChartType `json:"chart_type"`
	Years       []int     `json:"years,omitempty"`
	Sectors     []string  `json:"sectors,omitempty"`
	Metrics     []string  `json:"metrics,omitempty"`
	Aggregation string    `json:"aggregation"`
}

// AnalyzeQuestion 基于关键词分析问题意图并选择图表类型。
func AnalyzeQuestion(question string) *Intent {
	q := strings.TrimSpace(question)
	intent := &Intent{
		Type:        classify(q),
		Years:       extractYears(q),
		Sectors:     matchGroups(q, sectorKeywords),
		Metrics:     matchGroups(q, metricKeywords),
		Aggregation: aggregation(q),
	}
	if len(intent.Metrics) == 0 {
		intent.Metrics = []string{"배출량"}
	}
	intent.Chart = chartFor(intent.Type, q)
	return intent
}

func classify(q string) QueryType {
	switch {
	case textutil.ContainsAny(q, comparisonKeywords):
		return QueryComparison
	case textutil.ContainsAny(q, trendKeywords):
		return QueryTrend
	case textutil.ContainsAny(q, rankingKeywords):
		return QueryRanking
	case textutil.ContainsAny(q, statisticsKeywords):
		return QueryStatistics
	case textutil.ContainsAny(q, correlationKeywords):
		return QueryCorrelation
	case specificValuePattern.MatchString(q):
		return QuerySpecificValue
	default:
		return QuerySummary
	}
}

func chartFor(t QueryType, q string) ChartType {
	switch t {
	case QueryTrend:
		return ChartLine
	case QueryStatistics:
		if textutil.ContainsAny(q, shareKeywords) {
			return ChartPie
		}
		return ChartLine
	case QueryCorrelation:
		return ChartScatter
	default:
		return ChartBar
	}
}

// extractYears 返回 1990 到 2030 之间去重排序后的年份。
func extractYears(q string) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, m := range yearPattern.FindAllString(q, -1) {
		y, _ := strconv.Atoi(m)
		if y < minYear || y > maxYear {
			continue
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func matchGroups(q string, groups []keywordGroup) []string {
	var out []string
	for _, g := range groups {
		if textutil.ContainsAny(q, g.keywords) {
			out = append(out, g.name)
		}
	}
	return out
}

func aggregation(q string) string {
	switch {
	case textutil.ContainsAny(q, []string{"평균", "average", "avg"}):
		return "mean"
	case textutil.ContainsAny(q, []string{"최대", "최고", "max"}):
		return "max"
	case textutil.ContainsAny(q, []string{"최소", "최저", "min"}):
		return "min"
	default:
		return "sum"
	}
}

// NeedsVisualization 判断问题是否需要附带图表。
func NeedsVisualization(question string) bool {
	if textutil.ContainsAny(question, chartKeywords) {
		return true
	}
	for _, p := range yearComparePatterns {
		if p.MatchString(question) {
			return true
		}
	}
	return textutil.ContainsAny(question, visualPatternKeywords)
}
