package biz

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/internal/pkg/llmtest"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

func TestAnalyzerTemperaturesAndTrim(t *testing.T) {
	chat := &llmtest.Chat{Reply: func(string, string) string { return "  1. Intro\n2. Body \n" }}
	a := NewAnalyzer(chat, nil)

	toc, err := a.ExtractTableOfContents(context.Background(), "1. Intro\n2. Body")
	require.NoError(t, err)
	assert.Equal(t, "1. Intro\n2. Body", toc)

	_, err = a.SummarizeStructure(context.Background(), "1. Intro\n2. Body")
	require.NoError(t, err)

	calls := chat.Calls()
	require.Len(t, calls, 2)
	require.NotNil(t, calls[0].Options.Temperature)
	require.NotNil(t, calls[1].Options.Temperature)
	assert.InDelta(t, 0.3, *calls[0].Options.Temperature, 1e-9)
	assert.InDelta(t, 0.5, *calls[1].Options.Temperature, 1e-9)
	assert.Equal(t, tocSystemPrompt, calls[0].SystemPrompt)
	assert.Equal(t, structureSystemPrompt, calls[1].SystemPrompt)
}

func TestAnalyzerTruncatesInput(t *testing.T) {
	chat := &llmtest.Chat{}
	a := NewAnalyzer(chat, &AnalyzerConfig{MaxChars: 10})

	text := "가나다라마바사아자차" + strings.Repeat("X", 50)
	_, err := a.ExtractTableOfContents(context.Background(), text)
	require.NoError(t, err)

	prompt := chat.Calls()[0].Prompt
	assert.True(t, strings.HasSuffix(prompt, "가나다라마바사아자차"))
	assert.NotContains(t, prompt, "X")
}

func TestAnalyzerDefaultMaxChars(t *testing.T) {
	a := NewAnalyzer(&llmtest.Chat{}, &AnalyzerConfig{})
	assert.Equal(t, DefaultAnalysisMaxChars, a.config.MaxChars)
}

func TestAnalyzerError(t *testing.T) {
	chat := &llmtest.Chat{Err: errors.New("rate limited")}
	a := NewAnalyzer(chat, nil)

	out, err := a.SummarizeStructure(context.Background(), "text")
	assert.Empty(t, out)
	requireErrno(t, err, apierrors.ErrLLM)
	assert.Equal(t, http.StatusInternalServerError, apierrors.FromError(err).HTTPStatus())
	assert.Contains(t, err.Error(), "rate limited")
}
