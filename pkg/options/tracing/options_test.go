package tracing

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	opts := NewOptions()
	assert.False(t, opts.Enabled)
	assert.Equal(t, "sentinel-report", opts.ServiceName)
	assert.Equal(t, ExporterOTLPGRPC, opts.ExporterType)
	assert.Equal(t, SamplerParentBased, opts.SamplerType)
	assert.Empty(t, opts.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr bool
	}{
		{"disabled skips checks", func(o *Options) { o.ExporterType = "x" }, false},
		{"stdout without endpoint", func(o *Options) {
			o.Enabled = true
			o.ExporterType = ExporterStdout
			o.Endpoint = ""
		}, false},
		{"otlp without endpoint", func(o *Options) {
			o.Enabled = true
			o.Endpoint = ""
		}, true},
		{"invalid sampler", func(o *Options) {
			o.Enabled = true
			o.SamplerType = "sometimes"
		}, true},
		{"ratio out of range", func(o *Options) {
			o.Enabled = true
			o.SamplerRatio = 1.5
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			if tt.wantErr {
				assert.NotEmpty(t, o.Validate())
			} else {
				assert.Empty(t, o.Validate())
			}
		})
	}
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--tracing.enabled", "--tracing.exporter-type=stdout"}))
	assert.True(t, o.Enabled)
	assert.Equal(t, ExporterStdout, o.ExporterType)
}
