// Package options contains flags and options for initializing the report server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	reportsvc "github.com/kart-io/sentinel-report/internal/report"
	cacheopts "github.com/kart-io/sentinel-report/pkg/options/cache"
	carbonopts "github.com/kart-io/sentinel-report/pkg/options/carbon"
	llmopts "github.com/kart-io/sentinel-report/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-report/pkg/options/logger"
	middlewareopts "github.com/kart-io/sentinel-report/pkg/options/middleware"
	milvusopts "github.com/kart-io/sentinel-report/pkg/options/milvus"
	reportopts "github.com/kart-io/sentinel-report/pkg/options/report"
	httpopts "github.com/kart-io/sentinel-report/pkg/options/server/http"
	tracingopts "github.com/kart-io/sentinel-report/pkg/options/tracing"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// MilvusOptions contains Milvus database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// ReportOptions contains the analysis, indexing and synthesis settings.
	ReportOptions *reportopts.Options `json:"report" mapstructure:"report"`

	// CarbonOptions contains the carbon dataset chat configuration.
	CarbonOptions *carbonopts.Options `json:"carbon" mapstructure:"carbon"`

	// CacheOptions contains cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// MiddlewareOptions contains the HTTP middleware chain configuration.
	MiddlewareOptions *middlewareopts.Options `json:"middleware" mapstructure:"middleware"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:       httpopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		TracingOptions:    tracingopts.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		EmbeddingOptions:  llmopts.NewEmbeddingOptions(),
		ChatOptions:       llmopts.NewChatOptions(),
		ReportOptions:     reportopts.NewOptions(),
		CarbonOptions:     carbonopts.NewOptions(),
		CacheOptions:      cacheopts.NewOptions(),
		MiddlewareOptions: middlewareopts.NewOptions(),
		ShutdownTimeout:   30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.ReportOptions.AddFlags(fss.FlagSet("report"))
	o.CarbonOptions.AddFlags(fss.FlagSet("carbon"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.MiddlewareOptions.AddFlags(fss.FlagSet("middleware"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return err
	}
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := o.MilvusOptions.Complete(); err != nil {
		return fmt.Errorf("milvus: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.ReportOptions.Complete(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := o.CarbonOptions.Complete(); err != nil {
		return fmt.Errorf("carbon: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := o.MiddlewareOptions.Complete(); err != nil {
		return fmt.Errorf("middleware: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.ReportOptions.Validate()...)
	errs = append(errs, o.CarbonOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.MiddlewareOptions.Validate()...)
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a reportsvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*reportsvc.Config, error) {
	return &reportsvc.Config{
		HTTPOptions:       o.HTTPOptions,
		LogOptions:        o.LogOptions,
		TracingOptions:    o.TracingOptions,
		MilvusOptions:     o.MilvusOptions,
		EmbeddingOptions:  o.EmbeddingOptions,
		ChatOptions:       o.ChatOptions,
		ReportOptions:     o.ReportOptions,
		CarbonOptions:     o.CarbonOptions,
		CacheOptions:      o.CacheOptions,
		MiddlewareOptions: o.MiddlewareOptions,
		ShutdownTimeout:   o.ShutdownTimeout,
	}, nil
}
