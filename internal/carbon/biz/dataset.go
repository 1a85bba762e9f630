package biz

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kart-io/logger"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"

	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

const (
	// YearColumn 是转置后清单表的年份列名。
	YearColumn = "연도"

	// inventoryHeader 是国家温室气体清单表的首列表头，按行列出各部门、按列列出年份。
	inventoryHeader = "분야 및 연도"
)

// 已知文件名对应的数据集说明。
var datasetDescriptions = []struct {
	key  string
	desc string
}{
	{"3차_사전할당", "3차 계획기간 배출권 사전할당 데이터"},
	{"추가할당량", "배출권 추가할당량 데이터"},
	{"상쇄배출권", "상쇄배출권 발행량 데이터"},
	{"국가 온실가스 인벤토리", "국가 온실가스 인벤토리 배출량 데이터"},
	{"기업_규모_지역별", "기업 규모 및 지역별 온실가스 배출량 데이터"},
	{"배출권_거래데이터", "배출권 거래 관련 데이터"},
	{"배출권총수량", "배출권 총수량 데이터"},
	{"한국에너지공단", "산업부문 에너지사용 및 온실가스배출량 통계"},
}

// Table 是加载到内存的二维数据表，所有单元格保留原始文本。
type Table struct {
	Name        string
	Description string
	Columns     []string
	Rows        [][]string
}

// DatasetSummary 数据集概要。
type DatasetSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
	Rows        int      `json:"rows"`
}

// Summary 返回数据表概要。
func (t *Table) Summary() DatasetSummary {
	return DatasetSummary{
		Name:        t.Name,
		Description: t.Description,
		Columns:     t.Columns,
		Rows:        len(t.Rows),
	}
}

// ColumnIndex 返回列下标，不存在时返回 -1。
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// YearIndex 返回年份列下标。
func (t *Table) YearIndex() int {
	for i, c := range t.Columns {
		switch strings.ToLower(c) {
		case YearColumn, "year", "년도":
			return i
		}
	}
	return -1
}

// Float 解析单元格数值，允许千分位逗号。
func (t *Table) Float(row, col int) (float64, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return 0, false
	}
	return parseNumber(t.Rows[row][col])
}

// NumericColumns 返回除年份列外全部非空值都是数值的列。
func (t *Table) NumericColumns() []int {
	year := t.YearIndex()
	var cols []int
	for c := range t.Columns {
		if c == year {
			continue
		}
		seen := 0
		numeric := true
		for r := range t.Rows {
			if c >= len(t.Rows[r]) || strings.TrimSpace(t.Rows[r][c]) == "" {
				continue
			}
			if _, ok := t.Float(r, c); !ok {
				numeric = false
				break
			}
			seen++
		}
		if numeric && seen > 0 {
			cols = append(cols, c)
		}
	}
	return cols
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LoadFile 按扩展名加载 csv 或 xlsx 文件。
func LoadFile(path string) (*Table, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseCSV(name, data)
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseXLSX(name, f)
	default:
		return nil, fmt.Errorf("unsupported dataset file %s", filepath.Base(path))
	}
}

// ParseCSV 解析 CSV 数据，非 UTF-8 内容按 EUC-KR 解码。
func ParseCSV(name string, data []byte) (*Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return newTable(name, records)
}

// ParseXLSX 解析工作簿的第一个工作表。
func ParseXLSX(name string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return newTable(name, rows)
}

func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data, nil
	}
	return korean.EUCKR.NewDecoder().Bytes(data)
}

func newTable(name string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", name)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		row := make([]string, len(header))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}

	t := &Table{
		Name:        name,
		Description: describe(name),
		Columns:     header,
		Rows:        rows,
	}
	if len(header) > 0 && header[0] == inventoryHeader {
		t = transposeInventory(t)
	}
	return t, nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// transposeInventory 把“部门 × 年份”的清单表转为“年份 × 部门”，首列为 연도。
func transposeInventory(t *Table) *Table {
	columns := make([]string, 0, len(t.Rows)+1)
	columns = append(columns, YearColumn)
	for _, row := range t.Rows {
		columns = append(columns, row[0])
	}

	rows := make([][]string, 0, len(t.Columns)-1)
	for c := 1; c < len(t.Columns); c++ {
		row := make([]string, 0, len(columns))
		row = append(row, t.Columns[c])
		for _, src := range t.Rows {
			row = append(row, src[c])
		}
		rows = append(rows, row)
	}

	return &Table{
		Name:        t.Name,
		Description: t.Description,
		Columns:     columns,
		Rows:        rows,
	}
}

func describe(name string) string {
	for _, d := range datasetDescriptions {
		if strings.Contains(name, d.key) {
			return d.desc
		}
	}
	return fmt.Sprintf("온실가스 관련 데이터 (%s)", name)
}

// Catalog 是已加载数据集的只读集合。
type Catalog struct {
	tables []*Table
}

// NewCatalog 由已解析的数据表创建目录。
func NewCatalog(tables ...*Table) *Catalog {
	return &Catalog{tables: tables}
}

// LoadCatalog 加载目录下的数据文件。files 为空时加载全部 csv 与 xlsx 文件。
// 单个文件失败只记录告警。
func LoadCatalog(dir string, files []string) (*Catalog, error) {
	if len(files) == 0 {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, apierrors.ErrCarbonDataset.WithCause(fmt.Errorf("read data dir: %w", err))
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".csv", ".xlsx":
				files = append(files, e.Name())
			}
		}
	}
	sort.Strings(files)

	tables := make([]*Table, 0, len(files))
	for _, name := range files {
		t, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warnw("skipping dataset", "file", name, "error", err.Error())
			continue
		}
		logger.Infow("dataset loaded", "name", t.Name, "rows", len(t.Rows), "columns", len(t.Columns))
		tables = append(tables, t)
	}
	return NewCatalog(tables...), nil
}

// Tables 返回全部数据表。
func (c *Catalog) Tables() []*Table {
	return c.tables
}

// Summaries 返回全部数据集概要。
func (c *Catalog) Summaries() []DatasetSummary {
	out := make([]DatasetSummary, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t.Summary())
	}
	return out
}

// Main 返回用于作图的主表：优先带年份列的清单表，其次任意带年份列的表，最后是第一张表。
func (c *Catalog) Main() *Table {
	var withYear *Table
	for _, t := range c.tables {
		if t.YearIndex() < 0 {
			continue
		}
		if strings.Contains(t.Name, "인벤토리") {
			return t
		}
		if withYear == nil {
			withYear = t
		}
	}
	if withYear != nil {
		return withYear
	}
	if len(c.tables) > 0 {
		return c.tables[0]
	}
	return nil
}
