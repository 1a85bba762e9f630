package biz

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func inventoryTable(t *testing.T) *Table {
	t.Helper()
	table, err := ParseCSV("국가 온실가스 인벤토리", []byte(
		"분야 및 연도,2017,2018,2019,2020\n"+
			"총배출량,709.7,727.0,701.2,656.2\n"+
			"에너지,615.7,632.4,611.5,569.9\n"+
			"산업공정,56.3,57.0,52.2,47.2\n"+
			"농업,21.0,21.2,21.0,21.1\n"))
	require.NoError(t, err)
	return table
}

func TestRenderCharts(t *testing.T) {
	table := inventoryTable(t)
	r := NewChartRenderer(640, 480)

	tests := []struct {
		name   string
		intent *Intent
	}{
		{"line", &Intent{Chart: ChartLine}},
		{"line 年份区间", &Intent{Chart: ChartLine, Years: []int{2017, 2019}}},
		{"bar 年份比较", &Intent{Chart: ChartBar, Years: []int{2017, 2020}}},
		{"bar 最新年份", &Intent{Chart: ChartBar}},
		{"pie", &Intent{Chart: ChartPie, Years: []int{2019}}},
		{"scatter", &Intent{Chart: ChartScatter}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			png, err := r.Render(table, tt.intent)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(png, pngSignature))
		})
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewChartRenderer(0, 0)

	noYear, err := ParseCSV("plain", []byte("구분,수량\nA,10\nB,20\n"))
	require.NoError(t, err)
	_, err = r.Render(noYear, &Intent{Chart: ChartBar})
	assert.True(t, apierrors.IsCode(err, apierrors.ErrChartRender.Code))

	single, err := ParseCSV("single", []byte("연도,배출량\n2020,1\n"))
	require.NoError(t, err)
	_, err = r.Render(single, &Intent{Chart: ChartLine})
	assert.True(t, apierrors.IsCode(err, apierrors.ErrChartRender.Code))

	_, err = r.Render(nil, &Intent{Chart: ChartLine})
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCarbonNoDataset.Code))
}

func TestValueColumnPrefersTotal(t *testing.T) {
	table := inventoryTable(t)
	assert.Equal(t, "총배출량", table.Columns[valueColumn(table)])

	row := pickYearRow(table, 0, nil)
	assert.Equal(t, "2020", table.Rows[row][0])

	values := categoryValues(table, row, true)
	require.Len(t, values, 3)
	assert.Equal(t, "에너지", values[0].Label)
}
