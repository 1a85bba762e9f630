package biz

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

// Extractor 从 PDF 中提取纯文本。
type Extractor struct {
	// MaxBytes 限制输入大小，0 表示不限制。
	MaxBytes int64
}

// NewExtractor 创建提取器。
func NewExtractor(maxBytes int64) *Extractor {
	return &Extractor{MaxBytes: maxBytes}
}

// Extract 按页顺序提取文本，每个非空页面后追加一个换行。
// 空输入、解析失败或没有可提取文本时返回 ErrExtraction。
func (e *Extractor) Extract(ctx context.Context, raw []byte) (text string, err error) {
	if len(raw) == 0 {
		return "", apierrors.ErrExtraction.WithMessage("PDF data is empty")
	}
	if e.MaxBytes > 0 && int64(len(raw)) > e.MaxBytes {
		return "", apierrors.ErrExtraction.WithMessagef("PDF exceeds %d bytes", e.MaxBytes)
	}

	// PDF 库遇到畸形输入可能 panic
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = apierrors.ErrExtraction.WithCause(fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", apierrors.ErrExtraction.WithCause(err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", apierrors.ErrExtraction.WithCause(fmt.Errorf("page %d: %w", i, err))
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return "", apierrors.ErrExtraction.WithMessage("PDF contains no extractable text")
	}
	return b.String(), nil
}

// DecodeDocument 解码 base64 或 data URL 形式的文档。
// 若包含逗号，第一个逗号及之前的前缀会被去掉。
func DecodeDocument(data string) ([]byte, error) {
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[i+1:]
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, apierrors.ErrExtraction.WithMessage("PDF data is empty")
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(data); err == nil {
			return raw, nil
		}
	}
	return nil, apierrors.ErrExtraction.WithMessage("PDF data is not valid base64")
}
