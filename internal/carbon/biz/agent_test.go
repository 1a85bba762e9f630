package biz

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/internal/pkg/llmtest"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

func TestAskWithChart(t *testing.T) {
	chat := &llmtest.Chat{Reply: func(string, string) string { return " 2017년 이후 감소 추세입니다. " }}
	agent := NewAgent(NewCatalog(inventoryTable(t)), chat, NewChartRenderer(640, 480), nil, nil)

	answer, err := agent.Ask(context.Background(), "2017년부터 2020년까지 배출량 추이를 그래프로 보여줘")
	require.NoError(t, err)

	assert.Equal(t, "2017년 이후 감소 추세입니다.", answer.Answer)
	assert.Equal(t, QueryTrend, answer.Intent)
	assert.Equal(t, ChartLine, answer.ChartType)
	png, err := base64.StdEncoding.DecodeString(answer.ChartPNG)
	require.NoError(t, err)
	assert.Equal(t, pngSignature, png[:len(pngSignature)])

	calls := chat.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SystemPrompt, "## 국가 온실가스 인벤토리")
	assert.Contains(t, calls[0].SystemPrompt, "연도,총배출량,에너지,산업공정,농업")
	assert.Contains(t, calls[0].Prompt, "연도: 2017, 2020")
	assert.InDelta(t, 0.1, *calls[0].Options.Temperature, 1e-9)
}

func TestAskWithoutChart(t *testing.T) {
	agent := NewAgent(NewCatalog(inventoryTable(t)), &llmtest.Chat{}, nil, nil, nil)

	answer, err := agent.Ask(context.Background(), "2019년 배출량은 얼마야?")
	require.NoError(t, err)
	assert.Equal(t, QuerySpecificValue, answer.Intent)
	assert.Empty(t, answer.ChartPNG)
}

func TestAskUsesCache(t *testing.T) {
	cache, _ := newTestCache(t)
	chat := &llmtest.Chat{Reply: func(string, string) string { return "답변" }}
	agent := NewAgent(NewCatalog(inventoryTable(t)), chat, nil, cache, nil)

	first, err := agent.Ask(context.Background(), "에너지 분야 배출량")
	require.NoError(t, err)
	second, err := agent.Ask(context.Background(), "에너지 분야  배출량")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, chat.Calls(), 1)
}

func TestAskErrors(t *testing.T) {
	catalog := NewCatalog(inventoryTable(t))

	_, err := NewAgent(catalog, &llmtest.Chat{}, nil, nil, nil).Ask(context.Background(), "  ")
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCarbonQuestion.Code))

	_, err = NewAgent(NewCatalog(), &llmtest.Chat{}, nil, nil, nil).Ask(context.Background(), "질문")
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCarbonNoDataset.Code))

	_, err = NewAgent(catalog, &llmtest.Chat{Err: errors.New("down")}, nil, nil, nil).Ask(context.Background(), "질문")
	assert.True(t, apierrors.IsCode(err, apierrors.ErrLLM.Code))
}

func TestAskKeepsAnswerWhenChartFails(t *testing.T) {
	plain, err := ParseCSV("plain", []byte("구분,수량\nA,10\n"))
	require.NoError(t, err)
	agent := NewAgent(NewCatalog(plain), &llmtest.Chat{Reply: func(string, string) string { return "ok" }}, nil, nil, nil)

	answer, err := agent.Ask(context.Background(), "차트로 보여줘")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer.Answer)
	assert.Empty(t, answer.ChartPNG)
	assert.Len(t, agent.Datasets(), 1)
}

func TestUnconfiguredService(t *testing.T) {
	svc := NewUnconfiguredService(NewCatalog(inventoryTable(t)), "chat api key is not configured")

	_, err := svc.Ask(context.Background(), "질문")
	assert.True(t, apierrors.IsCode(err, apierrors.ErrConfiguration.Code))
	assert.Len(t, svc.Datasets(), 1)
}

// longInventory 生成 1990 到 2021 年的清单表，总배출량 = 300.5 + (年份-1990)。
func longInventory(t *testing.T) *Table {
	t.Helper()
	header := []string{"분야 및 연도"}
	total := []string{"총배출량"}
	for y := 1990; y <= 2021; y++ {
		header = append(header, fmt.Sprintf("%d", y))
		total = append(total, fmt.Sprintf("%.1f", 300.5+float64(y-1990)))
	}
	table, err := ParseCSV("국가 온실가스 인벤토리", []byte(strings.Join(header, ",")+"\n"+strings.Join(total, ",")+"\n"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 32)
	return table
}

func TestAskIncludesRequestedYearRows(t *testing.T) {
	chat := &llmtest.Chat{}
	agent := NewAgent(NewCatalog(longInventory(t)), chat, nil, nil, nil)

	_, err := agent.Ask(context.Background(), "2020년 총배출량은 얼마야?")
	require.NoError(t, err)

	calls := chat.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "관련 데이터 (국가 온실가스 인벤토리)")
	assert.Contains(t, calls[0].Prompt, "2020,330.5")
	assert.NotContains(t, calls[0].Prompt, "1990,300.5")
}

func TestRelevantRows(t *testing.T) {
	table := longInventory(t)
	years := func(rows [][]string) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r[0]
		}
		return out
	}

	assert.Equal(t, []string{"2017", "2018", "2019", "2020", "2021"},
		years(relevantRows(table, &Intent{Type: QuerySummary}, 5)), "no year falls back to the latest rows")
	assert.Equal(t, []string{"2005", "2010"},
		years(relevantRows(table, &Intent{Type: QueryComparison, Years: []int{2005, 2010}}, 5)))
	assert.Equal(t, []string{"2008", "2009", "2010"},
		years(relevantRows(table, &Intent{Type: QueryTrend, Years: []int{2008, 2010}}, 5)))
	assert.Equal(t, []string{"2019", "2020", "2021"},
		years(relevantRows(table, &Intent{Type: QuerySummary, Years: []int{2030}}, 3)), "unknown year falls back")

	plain, err := ParseCSV("plain", []byte("구분,수량\nA,1\nB,2\nC,3\n"))
	require.NoError(t, err)
	assert.Len(t, relevantRows(plain, &Intent{}, 2), 2)
}
