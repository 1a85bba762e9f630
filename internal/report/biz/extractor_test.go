package biz

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/internal/pkg/pdftest"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

func requireErrno(t *testing.T, err error, want *apierrors.Errno) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, want.Code), "want errno %d, got %v", want.Code, err)
}

func TestDecodeDocument(t *testing.T) {
	raw := []byte("%PDF-1.4 hello")
	enc := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		input string
	}{
		{"纯 base64", enc},
		{"data URL", "data:application/pdf;base64," + enc},
		{"无填充", base64.RawStdEncoding.EncodeToString(raw)},
		{"URL 安全编码", base64.URLEncoding.EncodeToString(raw)},
		{"首尾空白", "  " + enc + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDocument(tt.input)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}
}

func TestDecodeDocumentInvalid(t *testing.T) {
	for _, input := range []string{"", "data:application/pdf;base64,", "!!!not base64!!!"} {
		_, err := DecodeDocument(input)
		requireErrno(t, err, apierrors.ErrExtraction)
		assert.Equal(t, http.StatusBadRequest, apierrors.FromError(err).HTTPStatus())
	}
}

func TestExtractOnePage(t *testing.T) {
	doc := pdftest.Build([]string{"Chapter 1", "Chapter 2"})

	text, err := NewExtractor(0).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, text, "Chapter 1")
	assert.Contains(t, text, "Chapter 2")
	assert.Equal(t, byte('\n'), text[len(text)-1])
}

func TestExtractSkipsEmptyPages(t *testing.T) {
	doc := pdftest.Build([]string{"Intro"}, nil, []string{"Outro"})

	text, err := NewExtractor(0).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, text, "Intro")
	assert.Contains(t, text, "Outro")
	assert.NotContains(t, text, "\n\n")
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		maxBytes int64
	}{
		{"空输入", nil, 0},
		{"非 PDF", []byte("this is definitely not a pdf document, just some plain text bytes that are long enough"), 0},
		{"截断的 PDF", pdftest.Build([]string{"Chapter 1"})[:40], 0},
		{"无文本", pdftest.Build(nil), 0},
		{"超出大小", pdftest.Build([]string{"Chapter 1"}), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(tt.maxBytes).Extract(context.Background(), tt.raw)
			requireErrno(t, err, apierrors.ErrExtraction)
		})
	}
}
