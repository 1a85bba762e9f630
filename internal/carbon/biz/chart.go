package biz

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2"

	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

// 饼图和分部门柱状图最多取的列数。
const maxCategoryColumns = 5

// ChartRenderer 把数据表切片渲染为 PNG 图表。
type ChartRenderer struct {
	width  int
	height int
}

// NewChartRenderer 创建图表渲染器。
func NewChartRenderer(width, height int) *ChartRenderer {
	if width <= 0 {
		width = 1000
	}
	if height <= 0 {
		height = 600
	}
	return &ChartRenderer{width: width, height: height}
}

// Render 按意图的图表类型渲染 PNG。
func (r *ChartRenderer) Render(t *Table, intent *Intent) ([]byte, error) {
	if t == nil {
		return nil, apierrors.ErrCarbonNoDataset
	}
	year := t.YearIndex()
	if year < 0 {
		return nil, apierrors.ErrChartRender.WithMessagef("dataset %s has no year column", t.Name)
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch intent.Chart {
	case ChartLine:
		err = r.line(&buf, t, year, intent.Years)
	case ChartPie:
		err = r.pie(&buf, t, year, intent.Years)
	case ChartScatter:
		err = r.scatter(&buf, t)
	default:
		err = r.bar(&buf, t, year, intent.Years)
	}
	if err != nil {
		return nil, apierrors.ErrChartRender.WithCause(err)
	}
	return buf.Bytes(), nil
}

func (r *ChartRenderer) line(buf *bytes.Buffer, t *Table, year int, years []int) error {
	col := valueColumn(t)
	if col < 0 {
		return fmt.Errorf("dataset %s has no numeric column", t.Name)
	}

	var xs, ys []float64
	for row := range t.Rows {
		y, ok := t.Float(row, year)
		if !ok || !inRange(int(y), years) {
			continue
		}
		v, ok := t.Float(row, col)
		if !ok {
			continue
		}
		xs = append(xs, y)
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return fmt.Errorf("need at least two points, got %d", len(xs))
	}

	graph := chart.Chart{
		Title:  t.Columns[col],
		Width:  r.width,
		Height: r.height,
		XAxis: chart.XAxis{
			Name:           YearColumn,
			ValueFormatter: yearFormatter,
		},
		YAxis: chart.YAxis{Name: t.Columns[col]},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    t.Columns[col],
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: 2,
					DotWidth:    4,
				},
			},
		},
	}
	return graph.Render(chart.PNG, buf)
}

// bar 在提到两个以上年份时按年份比较主指标，否则比较单一年份的各部门数值。
func (r *ChartRenderer) bar(buf *bytes.Buffer, t *Table, year int, years []int) error {
	var (
		bars  []chart.Value
		title string
	)

	if len(years) >= 2 {
		col := valueColumn(t)
		if col < 0 {
			return fmt.Errorf("dataset %s has no numeric column", t.Name)
		}
		for _, y := range years {
			row := findYear(t, year, y)
			if v, ok := t.Float(row, col); ok {
				bars = append(bars, chart.Value{Label: fmt.Sprintf("%d", y), Value: v})
			}
		}
		title = t.Columns[col]
	} else {
		row := pickYearRow(t, year, years)
		bars = categoryValues(t, row, false)
		if len(bars) > 0 {
			title = t.Rows[row][year]
		}
	}
	if len(bars) == 0 {
		return fmt.Errorf("no values to plot")
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    r.width,
		Height:   r.height,
		BarWidth: r.width / (2*len(bars) + 1),
		Bars:     bars,
	}
	return graph.Render(chart.PNG, buf)
}

func (r *ChartRenderer) pie(buf *bytes.Buffer, t *Table, year int, years []int) error {
	row := pickYearRow(t, year, years)
	values := categoryValues(t, row, true)
	if len(values) == 0 {
		return fmt.Errorf("no positive values to plot")
	}

	graph := chart.PieChart{
		Title:  t.Rows[row][year],
		Width:  r.height,
		Height: r.height,
		Values: values,
	}
	return graph.Render(chart.PNG, buf)
}

// scatter 以前两个数值列作为 X 与 Y。
func (r *ChartRenderer) scatter(buf *bytes.Buffer, t *Table) error {
	cols := t.NumericColumns()
	if len(cols) < 2 {
		return fmt.Errorf("dataset %s needs two numeric columns for a scatter plot", t.Name)
	}
	xc, yc := cols[0], cols[1]

	var xs, ys []float64
	for row := range t.Rows {
		x, okX := t.Float(row, xc)
		y, okY := t.Float(row, yc)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return fmt.Errorf("need at least two points, got %d", len(xs))
	}

	graph := chart.Chart{
		Width:  r.width,
		Height: r.height,
		XAxis:  chart.XAxis{Name: t.Columns[xc]},
		YAxis:  chart.YAxis{Name: t.Columns[yc]},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
				},
			},
		},
	}
	return graph.Render(chart.PNG, buf)
}

// valueColumn 优先选择表示总量的列，否则取第一个数值列。
func valueColumn(t *Table) int {
	cols := t.NumericColumns()
	for _, c := range cols {
		name := strings.ToLower(t.Columns[c])
		if strings.Contains(name, "총") || strings.Contains(name, "합계") || strings.Contains(name, "total") {
			return c
		}
	}
	if len(cols) > 0 {
		return cols[0]
	}
	return -1
}

// categoryValues 取某一行前几个数值列，跳过总量列。
func categoryValues(t *Table, row int, positiveOnly bool) []chart.Value {
	if row < 0 {
		return nil
	}
	total := valueColumn(t)
	var values []chart.Value
	for _, c := range t.NumericColumns() {
		if len(values) == maxCategoryColumns {
			break
		}
		if c == total && strings.Contains(t.Columns[c], "총") {
			continue
		}
		v, ok := t.Float(row, c)
		if !ok || (positiveOnly && v <= 0) {
			continue
		}
		values = append(values, chart.Value{Label: t.Columns[c], Value: v})
	}
	return values
}

// pickYearRow 返回问题中第一个年份所在行，没有提到年份时返回最新年份。
func pickYearRow(t *Table, year int, years []int) int {
	if len(years) > 0 {
		if row := findYear(t, year, years[0]); row >= 0 {
			return row
		}
	}
	type yearRow struct{ year, row int }
	var rows []yearRow
	for row := range t.Rows {
		if y, ok := t.Float(row, year); ok {
			rows = append(rows, yearRow{int(y), row})
		}
	}
	if len(rows) == 0 {
		return -1
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].year > rows[j].year })
	return rows[0].row
}

func findYear(t *Table, year, want int) int {
	for row := range t.Rows {
		if y, ok := t.Float(row, year); ok && int(y) == want {
			return row
		}
	}
	return -1
}

// inRange 在提到两个以上年份时限定到其最小和最大年份之间。
func inRange(y int, years []int) bool {
	if len(years) < 2 {
		return true
	}
	return y >= years[0] && y <= years[len(years)-1]
}

func yearFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%d", int(f))
	}
	return fmt.Sprintf("%v", v)
}
