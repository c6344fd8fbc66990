package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// SummaryStatus is a snapshot of the summarizer's state, exposed through the
// summarization control tool.
type SummaryStatus struct {
	Enabled         bool    `json:"enabled"`
	Threshold       float64 `json:"threshold"`
	ContextSize     int     `json:"context_size"`
	EstimatedTokens int     `json:"estimated_tokens"`
	ShouldSummarize bool    `json:"should_summarize"`
}

// Summarizer keeps a conversation inside its context window by replacing the
// oldest portion of the transcript with a model-generated precis. One pass
// folds the first ~60% of the history (never the leading system prompt) into
// a single synthetic system message.
type Summarizer struct {
	history     *ChatHistory
	backend     Backend
	contextSize int
	threshold   float64

	mu      sync.Mutex
	enabled bool
}

// NewSummarizer wires a summarizer onto a history and the backend used for
// precis generation. It starts enabled.
func NewSummarizer(h *ChatHistory, b Backend, contextSize int, threshold float64) *Summarizer {
	if contextSize <= 0 {
		contextSize = DefaultContextSize
	}
	if threshold <= 0 {
		threshold = DefaultSummarizeThreshold
	}
	return &Summarizer{
		history:     h,
		backend:     b,
		contextSize: contextSize,
		threshold:   threshold,
		enabled:     true,
	}
}

// Enable turns automatic summarization on.
func (s *Summarizer) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

// Disable turns automatic summarization off. Trigger keeps working.
func (s *Summarizer) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

// Enabled reports whether automatic summarization is on.
func (s *Summarizer) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// ShouldSummarize reports whether the history occupies at least
// threshold*contextSize estimated tokens.
func (s *Summarizer) ShouldSummarize() bool {
	return s.history.IsFull(s.contextSize, s.threshold)
}

// Status snapshots the summarizer.
func (s *Summarizer) Status() SummaryStatus {
	return SummaryStatus{
		Enabled:         s.Enabled(),
		Threshold:       s.threshold,
		ContextSize:     s.contextSize,
		EstimatedTokens: s.history.EstimateTokens(),
		ShouldSummarize: s.ShouldSummarize(),
	}
}

// Summarize runs one compaction pass. Histories with fewer than two
// summarizable messages are left untouched and the call succeeds.
func (s *Summarizer) Summarize(ctx context.Context) error {
	msgs := s.history.Messages()

	// The configured system prompt (any leading non-summary system message)
	// survives at position 0. An old summary at the head is summarizable:
	// folding it keeps at most one summary message in the transcript.
	skip := 0
	if len(msgs) > 0 && msgs[0].Role == RoleSystem && !msgs[0].IsSummary() {
		skip = 1
	}

	n := len(msgs) - skip
	if n < 2 {
		return nil
	}
	k := int(summaryKeepRatio * float64(n))
	if k < 2 {
		if n <= 2 {
			return nil
		}
		k = 2
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following conversation, keeping important facts, decisions and preferences:\n\n")
	for _, m := range msgs[skip : skip+k] {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	sb.WriteString("\nSummary:")

	text, err := s.backend.Generate(ctx, sb.String(), summaryTemperature, summaryMaxTokens)
	if err != nil {
		return err
	}

	s.history.replaceHead(skip, k, NewSystemMessage(SummaryPrefix+strings.TrimSpace(text)))
	return nil
}

// Trigger forces summarization regardless of occupancy: one unconditional
// pass, then further passes while the history still reads as full.
func (s *Summarizer) Trigger(ctx context.Context) error {
	if err := s.Summarize(ctx); err != nil {
		return err
	}
	return s.Compact(ctx)
}

// Compact runs Summarize passes until the history drops below the threshold
// or a pass stops making progress.
func (s *Summarizer) Compact(ctx context.Context) error {
	for s.ShouldSummarize() {
		before := s.history.Len()
		if err := s.Summarize(ctx); err != nil {
			return err
		}
		if s.history.Len() >= before {
			return nil
		}
	}
	return nil
}
