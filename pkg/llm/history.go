package llm

import (
	"os"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Chat template markers. Any template that keeps role boundaries intact
// would do; this is the ChatML surface the corpus of local models expects.
const (
	chatTurnStart = "<|im_start|>"
	chatTurnEnd   = "<|im_end|>\n"
)

// ChatHistory holds the ordered transcript for one conversation and renders
// it into a prompt. The guard makes concurrent readers safe; a single agent
// still must not be driven from two call sites at once.
type ChatHistory struct {
	mu       sync.RWMutex
	messages []Message
}

// NewChatHistory creates an empty history.
func NewChatHistory() *ChatHistory {
	return &ChatHistory{messages: make([]Message, 0)}
}

// Add appends one message.
func (h *ChatHistory) Add(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of the transcript.
func (h *ChatHistory) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make([]Message, len(h.messages))
	copy(cp, h.messages)
	return cp
}

// Len reports the number of messages.
func (h *ChatHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear drops every message and reinstates systemPrompt (when non-empty) as
// the sole entry.
func (h *ChatHistory) Clear(systemPrompt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = h.messages[:0]
	if systemPrompt != "" {
		h.messages = append(h.messages, NewSystemMessage(systemPrompt))
	}
}

// EnsureSystemMessage prepends prompt as the leading system message if the
// transcript does not start with one yet.
func (h *ChatHistory) EnsureSystemMessage(prompt string) {
	if prompt == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) > 0 && h.messages[0].Role == RoleSystem {
		return
	}
	h.messages = append([]Message{NewSystemMessage(prompt)}, h.messages...)
}

// Render produces the full prompt, ending with an open assistant turn so the
// model continues from there.
func (h *ChatHistory) Render() string {
	return h.RenderWithPreamble("")
}

// RenderWithPreamble renders the transcript with an optional tool-schema
// preamble injected as a system block immediately after the leading system
// message (or first, when there is none).
func (h *ChatHistory) RenderWithPreamble(preamble string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return RenderMessages(h.messages, preamble)
}

// RenderMessages renders an arbitrary message slice the same way a history
// renders itself. Used by the engine for one-shot prompts when history
// management is off.
func RenderMessages(msgs []Message, preamble string) string {
	var sb strings.Builder
	i := 0
	if len(msgs) > 0 && msgs[0].Role == RoleSystem {
		writeTurn(&sb, msgs[0])
		i = 1
	}
	if preamble != "" {
		writeTurn(&sb, NewSystemMessage(preamble))
	}
	for ; i < len(msgs); i++ {
		writeTurn(&sb, msgs[i])
	}
	sb.WriteString(chatTurnStart)
	sb.WriteString(RoleAssistant)
	sb.WriteString("\n")
	return sb.String()
}

func writeTurn(sb *strings.Builder, m Message) {
	sb.WriteString(chatTurnStart)
	sb.WriteString(m.Role)
	sb.WriteString("\n")
	sb.WriteString(m.Content)
	sb.WriteString(chatTurnEnd)
}

// EstimateTokens approximates the rendered transcript's token count as
// ceil(chars/4). Deliberately cheap and pessimistic; keeps summarization
// deterministic and backend-independent.
func (h *ChatHistory) EstimateTokens() int {
	return (len(h.Render()) + 3) / 4
}

// IsFull reports whether estimated occupancy reached threshold*contextSize.
func (h *ChatHistory) IsFull(contextSize int, threshold float64) bool {
	if contextSize <= 0 {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultSummarizeThreshold
	}
	return float64(h.EstimateTokens()) >= threshold*float64(contextSize)
}

// JSON serializes the transcript as a 2-space indented array of
// {role, content} objects, in order.
func (h *ChatHistory) JSON() (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out, err := json.MarshalIndent(h.messages, "", "  ")
	if err != nil {
		return "", WrapError(KindJSONParse, err, "marshal history")
	}
	return string(out), nil
}

// LoadJSON replaces the transcript with the messages parsed from data.
func (h *ChatHistory) LoadJSON(data string) error {
	var msgs []Message
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		return WrapError(KindJSONParse, err, "parse history")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = msgs
	return nil
}

// Save writes the transcript to path as indented JSON.
func (h *ChatHistory) Save(path string) error {
	out, err := h.JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0644)
}

// Load reads a transcript previously written by Save. A missing file leaves
// the history empty and is not an error.
func (h *ChatHistory) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return h.LoadJSON(string(data))
}

// replaceHead swaps the first n entries after skip leading messages with the
// single message repl. Used by the summarizer.
func (h *ChatHistory) replaceHead(skip, n int, repl Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if skip+n > len(h.messages) {
		n = len(h.messages) - skip
	}
	if n <= 0 {
		return
	}
	rest := h.messages[skip+n:]
	out := make([]Message, 0, skip+1+len(rest))
	out = append(out, h.messages[:skip]...)
	out = append(out, repl)
	out = append(out, rest...)
	h.messages = out
}

// slice returns the messages in [skip, skip+n) as a copy.
func (h *ChatHistory) slice(skip, n int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if skip >= len(h.messages) {
		return nil
	}
	end := skip + n
	if end > len(h.messages) {
		end = len(h.messages)
	}
	cp := make([]Message, end-skip)
	copy(cp, h.messages[skip:end])
	return cp
}
