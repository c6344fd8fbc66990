package llm_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/llm"
)

// fakeBackend is a deterministic llm.Backend for tests. Generate returns
// scripted responses in order (repeating the last one when exhausted) and
// records every call.
type fakeBackend struct {
	responses []string
	calls     int
	prompts   []string
	temps     []float32
	maxTokens []int
	err       error
}

func (b *fakeBackend) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	b.prompts = append(b.prompts, prompt)
	b.temps = append(b.temps, temperature)
	b.maxTokens = append(b.maxTokens, maxTokens)
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	if len(b.responses) == 0 {
		return "", nil
	}
	i := b.calls - 1
	if i >= len(b.responses) {
		i = len(b.responses) - 1
	}
	return b.responses[i], nil
}

func (b *fakeBackend) GenerateStream(ctx context.Context, prompt string, temperature float32, maxTokens int, fn llm.StreamFunc) error {
	text, err := b.Generate(ctx, prompt, temperature, maxTokens)
	if err != nil {
		return err
	}
	// Two fragments so token-level delivery is observable.
	half := len(text) / 2
	if half > 0 {
		fn(text[:half])
	}
	fn(text[half:])
	return nil
}

func (b *fakeBackend) Info() llm.Info {
	return llm.Info{Backend: "fake", Device: "CPU", Model: "fake"}
}

func (b *fakeBackend) Warmup(ctx context.Context) error { return nil }
func (b *fakeBackend) IsTransientError(err error) bool  { return false }
func (b *fakeBackend) Close() error                     { return nil }

func fillHistory(h *llm.ChatHistory, pairs int, width int) {
	for i := 0; i < pairs; i++ {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		h.Add(llm.Message{Role: role, Content: strings.Repeat("m", width)})
	}
}

func TestSummarizeNoOpOnShortHistory(t *testing.T) {
	b := &fakeBackend{responses: []string{"summary"}}

	for _, msgs := range [][]llm.Message{
		{},
		{llm.NewSystemMessage("sys")},
		{llm.NewSystemMessage("sys"), llm.NewUserMessage("only one")},
	} {
		h := llm.NewChatHistory()
		for _, m := range msgs {
			h.Add(m)
		}
		s := llm.NewSummarizer(h, b, 100, 0.75)
		require.NoError(t, s.Summarize(context.Background()))
		assert.Equal(t, len(msgs), h.Len(), "history %v must be untouched", msgs)
		assert.Equal(t, 0, b.calls, "no backend call for a no-op")
	}
}

func TestSummarizeSinglePass(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewSystemMessage("persona"))
	fillHistory(h, 10, 20)

	b := &fakeBackend{responses: []string{"the gist"}}
	s := llm.NewSummarizer(h, b, 10000, 0.75)
	require.NoError(t, s.Summarize(context.Background()))

	msgs := h.Messages()
	// floor(0.6*10) = 6 messages folded into one summary.
	require.Len(t, msgs, 1+1+4)
	assert.Equal(t, "persona", msgs[0].Content, "system prompt preserved at position 0")
	assert.True(t, msgs[1].IsSummary())
	assert.Equal(t, llm.SummaryPrefix+"the gist", msgs[1].Content)

	// Summarization calls run at fixed deterministic parameters.
	require.Equal(t, 1, b.calls)
	assert.InDelta(t, 0.3, float64(b.temps[0]), 1e-6)
	assert.Equal(t, 256, b.maxTokens[0])
	assert.True(t, strings.HasSuffix(b.prompts[0], "Summary:"))
	assert.NotContains(t, b.prompts[0], "persona", "system prompt stays out of the summary prompt")
}

func TestTriggerCompactsUnderThreshold(t *testing.T) {
	h := llm.NewChatHistory()
	fillHistory(h, 30, 50)

	b := &fakeBackend{responses: []string{"short summary"}}
	s := llm.NewSummarizer(h, b, 100, 0.75)
	require.True(t, s.ShouldSummarize())

	require.NoError(t, s.Trigger(context.Background()))

	msgs := h.Messages()
	summaries := 0
	for _, m := range msgs {
		if m.IsSummary() {
			summaries++
		}
	}
	assert.Equal(t, 1, summaries, "re-summarization folds older summaries")
	assert.True(t, msgs[0].IsSummary())
	assert.LessOrEqual(t, len(msgs)-1, 12, "at most 12 recent messages survive")
	assert.LessOrEqual(t, h.EstimateTokens(), 75, "occupancy settles under threshold*context")
}

func TestSummarizePreservesConfiguredSystemPrompt(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewSystemMessage("persona"))
	fillHistory(h, 30, 50)

	b := &fakeBackend{responses: []string{"short summary"}}
	s := llm.NewSummarizer(h, b, 100, 0.75)
	require.NoError(t, s.Trigger(context.Background()))

	msgs := h.Messages()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "persona", msgs[0].Content)
	assert.True(t, msgs[1].IsSummary())
}

func TestSummarizeBackendFailure(t *testing.T) {
	h := llm.NewChatHistory()
	fillHistory(h, 10, 50)

	b := &fakeBackend{err: llm.Errorf(llm.KindInference, "decode failed")}
	s := llm.NewSummarizer(h, b, 100, 0.75)

	err := s.Summarize(context.Background())
	require.Error(t, err)
	assert.Equal(t, llm.KindInference, llm.KindOf(err))
	assert.Equal(t, 10, h.Len(), "history untouched on failure")
}

func TestSummarizerStatus(t *testing.T) {
	h := llm.NewChatHistory()
	fillHistory(h, 4, 10)

	s := llm.NewSummarizer(h, &fakeBackend{}, 100, 0.75)
	st := s.Status()
	assert.True(t, st.Enabled)
	assert.Equal(t, 100, st.ContextSize)
	assert.InDelta(t, 0.75, st.Threshold, 1e-9)
	assert.Equal(t, h.EstimateTokens(), st.EstimatedTokens)

	s.Disable()
	assert.False(t, s.Enabled())
	s.Enable()
	assert.True(t, s.Enabled())
}

func TestSummarizePromptContainsHistory(t *testing.T) {
	h := llm.NewChatHistory()
	for i := 0; i < 6; i++ {
		h.Add(llm.NewUserMessage(fmt.Sprintf("turn-%d", i)))
	}

	b := &fakeBackend{responses: []string{"s"}}
	s := llm.NewSummarizer(h, b, 10000, 0.75)
	require.NoError(t, s.Summarize(context.Background()))

	// floor(0.6*6) = 3 oldest turns end up in the prompt.
	require.Equal(t, 1, b.calls)
	assert.Contains(t, b.prompts[0], "turn-0")
	assert.Contains(t, b.prompts[0], "turn-2")
	assert.NotContains(t, b.prompts[0], "turn-5")
}
