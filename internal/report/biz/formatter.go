package biz

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/sentinel-report/internal/pkg/textutil"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

const (
	// fontHalfPoints 是正文字号，单位为半磅（22 = 11pt）。
	fontHalfPoints = 22
	// lineSpacing 是 1.5 倍行距，单位为 1/240 行。
	lineSpacing = 360

	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// docxEpoch 是写入 zip 条目的固定时间，相同输入得到相同字节。
var docxEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="` + wordNamespace + `"><w:docDefaults><w:rPrDefault><w:rPr><w:sz w:val="22"/><w:szCs w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults><w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style><w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/><w:pPr><w:keepNext/><w:spacing w:before="480" w:after="0"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:bCs/><w:color w:val="365F91"/><w:sz w:val="28"/><w:szCs w:val="28"/></w:rPr></w:style></w:styles>`

// Formatter 把报告文本排版为 DOCX 文档。
type Formatter struct{}

// NewFormatter 创建排版器。
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format 生成 DOCX：一个一级标题，之后每个非空行一个段落。
// 段落为 11pt、1.5 倍行距，空行被丢弃。相同输入总是得到相同字节。
func (f *Formatter) Format(text, title string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/document.xml", documentXML(text, title)},
	}

	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: docxEpoch,
		})
		if err != nil {
			return nil, apierrors.ErrFormatting.WithCause(fmt.Errorf("create %s: %w", p.name, err))
		}
		if _, err := w.Write(p.body); err != nil {
			return nil, apierrors.ErrFormatting.WithCause(fmt.Errorf("write %s: %w", p.name, err))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, apierrors.ErrFormatting.WithCause(err)
	}
	return buf.Bytes(), nil
}

// FormatEncoded 生成 DOCX 并做 base64 编码。
func (f *Formatter) FormatEncoded(text, title string) (string, error) {
	doc, err := f.Format(text, title)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(doc), nil
}

// Paragraphs 返回正文段落，即去除首尾空白后的非空行。
func Paragraphs(text string) []string {
	return textutil.NonBlankLines(text)
}

func documentXML(text, title string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="` + wordNamespace + `"><w:body>`)

	b.WriteString(`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t xml:space="preserve">`)
	writeEscaped(&b, strings.TrimSpace(title))
	b.WriteString(`</w:t></w:r></w:p>`)

	for _, line := range Paragraphs(text) {
		fmt.Fprintf(&b, `<w:p><w:pPr><w:spacing w:line="%d" w:lineRule="auto"/></w:pPr><w:r><w:rPr><w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr><w:t xml:space="preserve">`,
			lineSpacing, fontHalfPoints, fontHalfPoints)
		writeEscaped(&b, line)
		b.WriteString(`</w:t></w:r></w:p>`)
	}

	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.Bytes()
}

func writeEscaped(b *bytes.Buffer, s string) {
	// bytes.Buffer 的写入不会失败
	_ = xml.EscapeText(b, []byte(s))
}
