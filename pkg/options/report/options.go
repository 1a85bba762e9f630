// Package report provides configuration options for the report workflows.
package report

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-report/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains report-specific configuration.
type Options struct {
	// Collection is the name of the vector collection shared by all uploads.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// ChunkSize and ChunkOverlap are measured in characters.
	ChunkSize    int `json:"chunk-size" mapstructure:"chunk-size"`
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// EmbedBatchSize bounds how many chunks go into one embedding call.
	EmbedBatchSize int `json:"embed-batch-size" mapstructure:"embed-batch-size"`

	// EmbedConcurrency is the number of embedding batches in flight, 1 disables the worker pool.
	EmbedConcurrency int `json:"embed-concurrency" mapstructure:"embed-concurrency"`

	// TopK is the number of chunks retrieved for synthesis.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// AnalysisMaxChars truncates the text sent to the structure prompts.
	AnalysisMaxChars int `json:"analysis-max-chars" mapstructure:"analysis-max-chars"`

	// 各提示词的采样温度。
	TOCTemperature       float64 `json:"toc-temperature" mapstructure:"toc-temperature"`
	StructureTemperature float64 `json:"structure-temperature" mapstructure:"structure-temperature"`
	ReportTemperature    float64 `json:"report-temperature" mapstructure:"report-temperature"`

	// IsolateDocuments scopes retrieval to the chunks of the uploaded document.
	IsolateDocuments bool `json:"isolate-documents" mapstructure:"isolate-documents"`

	// MaxPDFBytes caps the decoded upload size, 0 means unlimited.
	MaxPDFBytes int64 `json:"max-pdf-bytes" mapstructure:"max-pdf-bytes"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Collection:           "carbone-index",
		EmbeddingDim:         1536,
		ChunkSize:            1000,
		ChunkOverlap:         150,
		EmbedBatchSize:       100,
		EmbedConcurrency:     4,
		TopK:                 5,
		AnalysisMaxChars:     4000,
		TOCTemperature:       0.3,
		StructureTemperature: 0.5,
		ReportTemperature:    0.7,
		IsolateDocuments:     true,
		MaxPDFBytes:          50 << 20,
	}
}

// AddFlags adds flags for report options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "report."
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "Vector collection name.")
	fs.IntVar(&o.EmbeddingDim, p+"embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.ChunkSize, p+"chunk-size", o.ChunkSize, "Size of text chunks in characters.")
	fs.IntVar(&o.ChunkOverlap, p+"chunk-overlap", o.ChunkOverlap, "Overlap between neighbouring chunks.")
	fs.IntVar(&o.EmbedBatchSize, p+"embed-batch-size", o.EmbedBatchSize, "Chunks per embedding request.")
	fs.IntVar(&o.EmbedConcurrency, p+"embed-concurrency", o.EmbedConcurrency, "Embedding requests in flight per document.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of chunks retrieved for report synthesis.")
	fs.IntVar(&o.AnalysisMaxChars, p+"analysis-max-chars", o.AnalysisMaxChars, "Characters of text sent to the structure analysis prompts.")
	fs.Float64Var(&o.TOCTemperature, p+"toc-temperature", o.TOCTemperature, "Sampling temperature for table of contents extraction.")
	fs.Float64Var(&o.StructureTemperature, p+"structure-temperature", o.StructureTemperature, "Sampling temperature for the structure summary.")
	fs.Float64Var(&o.ReportTemperature, p+"report-temperature", o.ReportTemperature, "Sampling temperature for report generation.")
	fs.BoolVar(&o.IsolateDocuments, p+"isolate-documents", o.IsolateDocuments, "Retrieve only chunks of the uploaded document.")
	fs.Int64Var(&o.MaxPDFBytes, p+"max-pdf-bytes", o.MaxPDFBytes, "Maximum decoded PDF size in bytes, 0 for unlimited.")
}

// Validate validates the report options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("report collection is required"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("report embedding-dim must be positive"))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("report chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("report chunk-overlap must be in [0, chunk-size)"))
	}
	if o.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("report embed-batch-size must be positive"))
	}
	if o.EmbedConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("report embed-concurrency must be positive"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("report top-k must be positive"))
	}
	if o.AnalysisMaxChars <= 0 {
		errs = append(errs, fmt.Errorf("report analysis-max-chars must be positive"))
	}
	for name, t := range map[string]float64{
		"toc-temperature":       o.TOCTemperature,
		"structure-temperature": o.StructureTemperature,
		"report-temperature":    o.ReportTemperature,
	} {
		if t < 0 || t > 2 {
			errs = append(errs, fmt.Errorf("report %s must be in [0, 2]", name))
		}
	}
	if o.MaxPDFBytes < 0 {
		errs = append(errs, fmt.Errorf("report max-pdf-bytes must not be negative"))
	}
	return errs
}

// Complete completes the report options.
func (o *Options) Complete() error {
	return nil
}
