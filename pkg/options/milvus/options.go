// Package milvusopts provides options for Milvus client configuration.
package milvusopts

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-report/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// 未显式配置时回退读取的环境变量。
const (
	AddressEnv = "MILVUS_ADDRESS"
	APIKeyEnv  = "MILVUS_API_KEY"
)

// Options contains Milvus client configuration.
type Options struct {
	// Address is the Milvus server address (host:port or a managed endpoint URI).
	Address string `json:"address" mapstructure:"address"`

	// Database is the database name to use.
	Database string `json:"database" mapstructure:"database"`

	// Username for authentication.
	Username string `json:"username" mapstructure:"username"`

	// Password for authentication.
	Password string `json:"-" mapstructure:"password"`

	// APIKey authenticates against a managed deployment (Zilliz Cloud).
	APIKey string `json:"-" mapstructure:"api-key"`

	// Cloud and Region describe where a managed collection lives.
	Cloud  string `json:"cloud" mapstructure:"cloud"`
	Region string `json:"region" mapstructure:"region"`

	// Timeout for connection and operations.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Database: "default",
		Cloud:    "aws",
		Region:   "us-east-1",
		Timeout:  30 * time.Second,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "milvus."
	fs.StringVar(&o.Address, p+"address", o.Address, "Milvus server address, defaults to $"+AddressEnv+".")
	fs.StringVar(&o.Database, p+"database", o.Database, "Milvus database name.")
	fs.StringVar(&o.Username, p+"username", o.Username, "Milvus username for authentication.")
	fs.StringVar(&o.Password, p+"password", o.Password, "Milvus password for authentication.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "Milvus API key, defaults to $"+APIKeyEnv+".")
	fs.StringVar(&o.Cloud, p+"cloud", o.Cloud, "Cloud provider of the managed deployment.")
	fs.StringVar(&o.Region, p+"region", o.Region, "Region of the managed deployment.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Connection and operation timeout.")
}

// Complete fills address and api key from the environment.
func (o *Options) Complete() error {
	if o.Address == "" {
		o.Address = os.Getenv(AddressEnv)
	}
	if o.APIKey == "" {
		o.APIKey = os.Getenv(APIKeyEnv)
	}
	return nil
}

// Configured reports whether a server address is known.
func (o *Options) Configured() bool {
	return o != nil && o.Address != ""
}

// Validate validates the options.
// 地址缺失不视为启动错误，相关接口在调用时返回配置错误。
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("milvus timeout must be positive"))
	}
	return errs
}
