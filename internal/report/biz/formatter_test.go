package biz

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPart(t *testing.T, doc []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestFormatIsDeterministic(t *testing.T) {
	f := NewFormatter()
	a, err := f.Format("Line one\nLine two", "Title")
	require.NoError(t, err)
	b, err := f.Format("Line one\nLine two", "Title")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFormatDropsBlankLines(t *testing.T) {
	doc, err := NewFormatter().Format("A\n\nB", "Report")
	require.NoError(t, err)

	body := readPart(t, doc, "word/document.xml")
	// 标题 + 两个段落
	assert.Equal(t, 3, strings.Count(body, "<w:p>"))
	assert.Contains(t, body, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, body, ">Report</w:t>")
	assert.Contains(t, body, ">A</w:t>")
	assert.Contains(t, body, ">B</w:t>")
	assert.Equal(t, 2, strings.Count(body, `<w:sz w:val="22"/>`))
	assert.Equal(t, 2, strings.Count(body, `<w:spacing w:line="360" w:lineRule="auto"/>`))
}

func TestFormatEscapesText(t *testing.T) {
	doc, err := NewFormatter().Format("  a < b & c  ", `R&D "plan"`)
	require.NoError(t, err)

	body := readPart(t, doc, "word/document.xml")
	assert.Contains(t, body, ">a &lt; b &amp; c</w:t>")
	assert.Contains(t, body, "R&amp;D")
}

func TestFormatPackageParts(t *testing.T) {
	doc, err := NewFormatter().Format("x", "t")
	require.NoError(t, err)

	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/_rels/document.xml.rels", "word/styles.xml"} {
		assert.NotEmpty(t, readPart(t, doc, name))
	}
}

func TestFormatEncodedRoundTrip(t *testing.T) {
	f := NewFormatter()
	raw, err := f.Format("Body\n\n  \nMore", "Title")
	require.NoError(t, err)
	encoded, err := f.FormatEncoded("Body\n\n  \nMore", "Title")
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, Paragraphs("A\n\nB"))
	assert.Empty(t, Paragraphs(" \n\t\n"))
}
