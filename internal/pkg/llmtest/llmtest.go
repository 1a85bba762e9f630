// Package llmtest provides deterministic in-process LLM providers for tests.
package llmtest

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/kart-io/sentinel-report/pkg/llm"
)

// Call records one chat request.
type Call struct {
	Prompt       string
	SystemPrompt string
	Messages     []llm.Message
	Options      llm.CallOptions
}

// Chat is a scripted llm.ChatProvider. Reply computes the answer from the
// user prompt; when nil the prompt is echoed. Err, when set, fails every call.
type Chat struct {
	Reply func(prompt, system string) string
	Err   error

	mu    sync.Mutex
	calls []Call
}

// Name implements llm.ChatProvider.
func (c *Chat) Name() string { return "fake-chat" }

// Chat implements llm.ChatProvider.
func (c *Chat) Chat(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (*llm.ChatResponse, error) {
	var prompt, system string
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = m.Content
		case llm.RoleUser:
			prompt = m.Content
		}
	}

	c.mu.Lock()
	c.calls = append(c.calls, Call{
		Prompt:       prompt,
		SystemPrompt: system,
		Messages:     messages,
		Options:      llm.ApplyCallOptions(opts...),
	})
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}

	content := prompt
	if c.Reply != nil {
		content = c.Reply(prompt, system)
	}
	return &llm.ChatResponse{
		Content: content,
		Model:   "fake",
		TokenUsage: llm.TokenUsage{
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(content) / 4,
			TotalTokens:      (len(prompt) + len(content)) / 4,
		},
	}, nil
}

// Generate implements llm.ChatProvider.
func (c *Chat) Generate(ctx context.Context, prompt, systemPrompt string, opts ...llm.CallOption) (*llm.ChatResponse, error) {
	messages := make([]llm.Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})
	return c.Chat(ctx, messages, opts...)
}

// Calls returns a copy of the recorded calls.
func (c *Chat) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// LinesContaining returns a Reply func answering with the prompt lines that
// contain substr, joined by newlines.
func LinesContaining(substr string) func(prompt, system string) string {
	return func(prompt, _ string) string {
		var out []string
		for _, line := range strings.Split(prompt, "\n") {
			if strings.Contains(line, substr) {
				out = append(out, strings.TrimSpace(line))
			}
		}
		return strings.Join(out, "\n")
	}
}

// Embedder is a deterministic llm.EmbeddingProvider. Equal texts map to equal
// unit vectors of Dim dimensions.
type Embedder struct {
	Dim int
	Err error

	mu      sync.Mutex
	batches [][]string
}

// Name implements llm.EmbeddingProvider.
func (e *Embedder) Name() string { return "fake-embedder" }

// Embed implements llm.EmbeddingProvider.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches = append(e.batches, append([]string(nil), texts...))
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Err != nil {
		return nil, e.Err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Vector(t, e.Dim)
	}
	return out, nil
}

// EmbedSingle implements llm.EmbeddingProvider.
func (e *Embedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Batches returns the recorded Embed batches.
func (e *Embedder) Batches() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.batches))
	copy(out, e.batches)
	return out
}

// Vector derives a unit vector of dim dimensions from text.
func Vector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		h := fnv.New32a()
		_, _ = h.Write([]byte{byte(i), byte(i >> 8)})
		_, _ = h.Write([]byte(text))
		v := float64(h.Sum32()%2000)/1000 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}
