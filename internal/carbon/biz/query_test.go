package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeQuestion(t *testing.T) {
	tests := []struct {
		question string
		typ      QueryType
		chart    ChartType
		years    []int
	}{
		{"2017년부터 2021년까지 배출량 추이를 보여줘", QueryTrend, ChartLine, []int{2017, 2021}},
		{"2021년과 2017년 총배출량 비교", QueryComparison, ChartBar, []int{2017, 2021}},
		{"에너지 분야 배출 순위", QueryRanking, ChartBar, nil},
		{"산업 부문 배출 비중", QueryStatistics, ChartPie, nil},
		{"연도별 평균 배출량", QueryStatistics, ChartLine, nil},
		{"GDP와 배출량의 상관관계", QueryCorrelation, ChartScatter, nil},
		{"2019년 배출량은 얼마야?", QuerySpecificValue, ChartBar, []int{2019}},
		{"안녕하세요", QuerySummary, ChartBar, nil},
		{"1985년 2050년 2019년 2019년", QuerySummary, ChartBar, []int{2019}},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			intent := AnalyzeQuestion(tt.question)
			assert.Equal(t, tt.typ, intent.Type)
			assert.Equal(t, tt.chart, intent.Chart)
			assert.Equal(t, tt.years, intent.Years)
		})
	}
}

func TestAnalyzeQuestionEntities(t *testing.T) {
	intent := AnalyzeQuestion("수송과 에너지 분야 평균 감축량")
	assert.Equal(t, []string{"에너지", "수송"}, intent.Sectors)
	assert.Equal(t, []string{"감축량"}, intent.Metrics)
	assert.Equal(t, "mean", intent.Aggregation)

	intent = AnalyzeQuestion("알려줘")
	assert.Equal(t, []string{"배출량"}, intent.Metrics)
	assert.Equal(t, "sum", intent.Aggregation)
}

func TestNeedsVisualization(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"배출량을 그래프로 그려줘", true},
		{"Show me a chart", true},
		{"2017년과 2021년 배출량 비교", true},
		{"최근 배출량 추이는?", true},
		{"상위 5개 업종", true},
		{"2019년 배출량은 얼마야?", false},
		{"배출권이란 무엇인가요", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsVisualization(tt.question))
		})
	}
}
