package llm_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/llm"
)

func TestHistoryClearKeepsSystemPrompt(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewSystemMessage("you are helpful"))
	h.Add(llm.NewUserMessage("hi"))
	h.Add(llm.NewAssistantMessage("hello"))

	h.Clear("you are helpful")

	msgs := h.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "you are helpful", msgs[0].Content)
}

func TestHistoryClearWithoutSystemPrompt(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewUserMessage("hi"))

	h.Clear("")

	assert.Equal(t, 0, h.Len())
}

func TestHistoryRenderRoleBoundaries(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewSystemMessage("sys"))
	h.Add(llm.NewUserMessage("question"))
	h.Add(llm.NewAssistantMessage("answer"))

	out := h.Render()

	assert.Contains(t, out, "<|im_start|>system\nsys<|im_end|>\n")
	assert.Contains(t, out, "<|im_start|>user\nquestion<|im_end|>\n")
	assert.Contains(t, out, "<|im_start|>assistant\nanswer<|im_end|>\n")
	// The prompt ends with an open assistant turn for the model to continue.
	assert.True(t, strings.HasSuffix(out, "<|im_start|>assistant\n"))
}

func TestHistoryRenderWithPreamblePosition(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewSystemMessage("sys"))
	h.Add(llm.NewUserMessage("question"))

	out := h.RenderWithPreamble("TOOLS GO HERE")

	sysIdx := strings.Index(out, "sys")
	preIdx := strings.Index(out, "TOOLS GO HERE")
	userIdx := strings.Index(out, "question")
	require.True(t, sysIdx >= 0 && preIdx >= 0 && userIdx >= 0)
	assert.Less(t, sysIdx, preIdx, "preamble must follow the system message")
	assert.Less(t, preIdx, userIdx, "preamble must precede the conversation")
}

func TestHistoryRenderWithPreambleNoSystem(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewUserMessage("question"))

	out := h.RenderWithPreamble("TOOLS")
	assert.Less(t, strings.Index(out, "TOOLS"), strings.Index(out, "question"))
}

func TestHistoryEstimateTokens(t *testing.T) {
	h := llm.NewChatHistory()
	assert.Equal(t, (len(h.Render())+3)/4, h.EstimateTokens())

	h.Add(llm.NewUserMessage(strings.Repeat("x", 400)))
	rendered := h.Render()
	assert.Equal(t, (len(rendered)+3)/4, h.EstimateTokens())
	assert.GreaterOrEqual(t, h.EstimateTokens(), 100)
}

func TestHistoryIsFull(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewUserMessage(strings.Repeat("x", 400)))

	// ~100+ estimated tokens against a window of 120 at 0.75 -> full.
	assert.True(t, h.IsFull(120, 0.75))
	assert.False(t, h.IsFull(10000, 0.75))
	assert.False(t, h.IsFull(0, 0.75))
}

func TestHistoryJSONRoundTrip(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewSystemMessage("sys"))
	h.Add(llm.NewUserMessage("hi there"))
	h.Add(llm.Message{Role: "tool", Content: `{"k":"v"}`})

	out, err := h.JSON()
	require.NoError(t, err)
	assert.Contains(t, out, "  {") // 2-space indent

	h2 := llm.NewChatHistory()
	require.NoError(t, h2.LoadJSON(out))
	assert.Equal(t, h.Messages(), h2.Messages())
}

func TestHistorySaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	h := llm.NewChatHistory()
	h.Add(llm.NewUserMessage("persist me"))
	require.NoError(t, h.Save(path))

	h2 := llm.NewChatHistory()
	require.NoError(t, h2.Load(path))
	assert.Equal(t, h.Messages(), h2.Messages())

	// Missing files leave the history empty without error.
	h3 := llm.NewChatHistory()
	require.NoError(t, h3.Load(filepath.Join(t.TempDir(), "absent.json")))
	assert.Equal(t, 0, h3.Len())
}

func TestEnsureSystemMessage(t *testing.T) {
	h := llm.NewChatHistory()
	h.Add(llm.NewUserMessage("hi"))

	h.EnsureSystemMessage("sys")
	msgs := h.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)

	// Idempotent when a system message already leads.
	h.EnsureSystemMessage("sys")
	assert.Equal(t, 2, h.Len())
}
