// Package carbon provides configuration options for the carbon data chat.
package carbon

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-report/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 碳排放问答配置。
type Options struct {
	// Enabled 是否注册 /api/carbon 路由。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// DataDir 数据文件所在目录，支持 csv 与 xlsx。
	DataDir string `json:"data-dir" mapstructure:"data-dir"`

	// Files 需要加载的文件名，为空时加载目录下全部数据文件。
	Files []string `json:"files" mapstructure:"files"`

	// Temperature 问答采样温度。
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxSampleRows 写入系统提示词的样例行数。
	MaxSampleRows int `json:"max-sample-rows" mapstructure:"max-sample-rows"`

	// ChartWidth 和 ChartHeight 为图表像素尺寸。
	ChartWidth  int `json:"chart-width" mapstructure:"chart-width"`
	ChartHeight int `json:"chart-height" mapstructure:"chart-height"`
}

// NewOptions 创建默认配置。
func NewOptions() *Options {
	return &Options{
		Enabled:       true,
		DataDir:       "data",
		Temperature:   0.1,
		MaxSampleRows: 5,
		ChartWidth:    1000,
		ChartHeight:   600,
	}
}

// AddFlags adds flags for carbon options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "carbon."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Serve the carbon data chat endpoints.")
	fs.StringVar(&o.DataDir, p+"data-dir", o.DataDir, "Directory holding the emission datasets.")
	fs.StringSliceVar(&o.Files, p+"files", o.Files, "Dataset file names to load, empty loads every csv/xlsx file.")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Sampling temperature for answers.")
	fs.IntVar(&o.MaxSampleRows, p+"max-sample-rows", o.MaxSampleRows, "Sample rows per dataset included in the prompt.")
	fs.IntVar(&o.ChartWidth, p+"chart-width", o.ChartWidth, "Rendered chart width in pixels.")
	fs.IntVar(&o.ChartHeight, p+"chart-height", o.ChartHeight, "Rendered chart height in pixels.")
}

// Validate validates the carbon options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.DataDir == "" {
		errs = append(errs, fmt.Errorf("carbon data-dir is required"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("carbon temperature must be in [0, 2]"))
	}
	if o.MaxSampleRows < 0 {
		errs = append(errs, fmt.Errorf("carbon max-sample-rows must not be negative"))
	}
	if o.ChartWidth <= 0 || o.ChartHeight <= 0 {
		errs = append(errs, fmt.Errorf("carbon chart size must be positive"))
	}
	return errs
}

// Complete completes the carbon options.
func (o *Options) Complete() error {
	return nil
}
