package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/internal/pkg/llmtest"
	"github.com/kart-io/sentinel-report/internal/report/store"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

func seedStore(t *testing.T, vs *store.MemoryStore, docID string, n int) {
	t.Helper()
	_, err := vs.EnsureCollection(context.Background(), &store.CollectionSpec{Name: "c", Dimension: testDim})
	require.NoError(t, err)

	records := make([]*store.Record, n)
	for i := range records {
		content := fmt.Sprintf("%s chunk %d", docID, i)
		records[i] = &store.Record{
			DocumentID: docID,
			ChunkIndex: i,
			Content:    content,
			Embedding:  llmtest.Vector(content, testDim),
		}
	}
	_, err = vs.Upsert(context.Background(), "c", records)
	require.NoError(t, err)
}

func TestSynthesizeStuffsTopK(t *testing.T) {
	vs := store.NewMemoryStore()
	seedStore(t, vs, "doc-a", 8)
	chat := &llmtest.Chat{Reply: func(string, string) string { return "\nDraft report\n" }}
	s := NewSynthesizer(vs, &llmtest.Embedder{Dim: testDim}, chat, nil)

	report, err := s.Synthesize(context.Background(), NewCollection("c", testDim), "탄소중립 전략", nil)
	require.NoError(t, err)
	assert.Equal(t, "Draft report", report)

	calls := chat.Calls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].SystemPrompt)
	require.NotNil(t, calls[0].Options.Temperature)
	assert.InDelta(t, 0.7, *calls[0].Options.Temperature, 1e-9)

	prompt := calls[0].Prompt
	assert.Contains(t, prompt, ReportQuery("탄소중립 전략"))
	lines := strings.Split(prompt, "\n")
	included := 0
	for i := 0; i < 8; i++ {
		for _, l := range lines {
			if l == fmt.Sprintf("doc-a chunk %d", i) {
				included++
			}
		}
	}
	assert.Equal(t, 5, included)
}

func TestSynthesizeIsolatesDocument(t *testing.T) {
	vs := store.NewMemoryStore()
	seedStore(t, vs, "doc-a", 3)
	seedStore(t, vs, "doc-b", 3)
	chat := &llmtest.Chat{}
	s := NewSynthesizer(vs, &llmtest.Embedder{Dim: testDim}, chat, nil)

	_, err := s.Synthesize(context.Background(), NewCollection("c", testDim), "topic", &RetrievalFilter{DocumentID: "doc-b"})
	require.NoError(t, err)

	prompt := chat.Calls()[0].Prompt
	assert.NotContains(t, prompt, "doc-a")
	assert.Contains(t, prompt, "doc-b chunk 0")
}

func TestSynthesizeErrors(t *testing.T) {
	vs := store.NewMemoryStore()
	seedStore(t, vs, "doc-a", 1)
	coll := NewCollection("c", testDim)

	t.Run("embedding", func(t *testing.T) {
		s := NewSynthesizer(vs, &llmtest.Embedder{Dim: testDim, Err: errors.New("boom")}, &llmtest.Chat{}, nil)
		_, err := s.Synthesize(context.Background(), coll, "topic", nil)
		requireErrno(t, err, apierrors.ErrEmbedding)
	})

	t.Run("chat", func(t *testing.T) {
		s := NewSynthesizer(vs, &llmtest.Embedder{Dim: testDim}, &llmtest.Chat{Err: errors.New("boom")}, nil)
		_, err := s.Synthesize(context.Background(), coll, "topic", nil)
		requireErrno(t, err, apierrors.ErrLLM)
	})

	t.Run("missing collection", func(t *testing.T) {
		s := NewSynthesizer(vs, &llmtest.Embedder{Dim: testDim}, &llmtest.Chat{}, nil)
		_, err := s.Synthesize(context.Background(), NewCollection("missing", testDim), "topic", nil)
		requireErrno(t, err, apierrors.ErrVectorStore)
	})

	t.Run("dimension", func(t *testing.T) {
		s := NewSynthesizer(vs, &llmtest.Embedder{Dim: 3}, &llmtest.Chat{}, nil)
		_, err := s.Synthesize(context.Background(), coll, "topic", nil)
		requireErrno(t, err, apierrors.ErrDimensionMismatch)
	})
}
