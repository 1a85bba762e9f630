package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-report/pkg/llm"
)

type flakyProvider struct {
	calls int
	err   error
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([][]float32, len(texts)), nil
}

func (f *flakyProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *flakyProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.CallOption) (*llm.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: "ok"}, nil
}

func (f *flakyProvider) Generate(ctx context.Context, prompt, _ string, opts ...llm.CallOption) (*llm.ChatResponse, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProvider{err: errors.New("rate limited")}
	p := Wrap(inner, &BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute, HalfOpenRequests: 1})

	for i := 0; i < 2; i++ {
		_, err := p.Generate(context.Background(), "q", "")
		require.Error(t, err)
	}
	assert.Equal(t, "open", p.State())

	_, err := p.Generate(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrOpen)
	// no upstream call while open, and never a retry
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerPassesResults(t *testing.T) {
	inner := &flakyProvider{}
	p := Wrap(inner, nil)

	resp, err := p.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, "flaky", p.Name())
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	inner := &flakyProvider{err: context.Canceled}
	p := Wrap(inner, &BreakerConfig{Name: "test", MaxFailures: 1, OpenTimeout: time.Minute})

	_, _ = p.EmbedSingle(context.Background(), "x")
	_, _ = p.EmbedSingle(context.Background(), "x")
	assert.Equal(t, "closed", p.State())
}
